// Command tokengen issues an access token for a participant.  Login is
// handled by the campus identity provider; this tool is for operators and
// local testing.
//
//	tokengen -sub 4.123.456-7 -role participant
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Matipousi/UcuDB1/internal/utils"
)

func main() {
	sub := flag.String("sub", "", "participant id")
	role := flag.String("role", utils.RoleParticipant, "admin or participant")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(2)
	}
	tok, err := utils.NewAccessToken(secret, *sub, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
}
