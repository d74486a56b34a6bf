// Command token mints a bearer token for a user id. Accounts live outside this service;
// operators use this to hand out admin tokens and to script local testing.
package main

import (
	"flag"
	"fmt"
	"log"

	"coupon-marketplace/internal/config"
	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/infra/web"
)

func main() {
	sub := flag.String("sub", "", "user id to put in the token")
	admin := flag.Bool("admin", false, "issue an admin token")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *sub == "" {
		log.Fatal("-sub is required")
	}
	role := model.RoleUser
	if *admin {
		role = model.RoleAdmin
	}
	tok, err := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).IssueToken(*sub, role)
	if err != nil {
		log.Fatalf("sign: %v", err)
	}
	fmt.Println(tok)
}
