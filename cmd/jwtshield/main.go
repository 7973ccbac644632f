package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aussiebroadwan/jwtshield/internal/auth/app"
	"github.com/aussiebroadwan/jwtshield/pkg/cryptox"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "gen-secret":
			genSecret()
			return
		case "serve":
		default:
			log.Fatalf("unknown command %q (want serve or gen-secret)", os.Args[1])
		}
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

// genSecret prints a random value suitable for SECRET_KEY.
func genSecret() {
	secret, err := cryptox.GenerateSecret(cryptox.SecretLength)
	if err != nil {
		log.Fatalf("failed to generate secret: %v", err)
	}
	fmt.Println(secret)
}
