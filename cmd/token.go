package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/qrave1/PairSpeak/internal/application/config"
	"github.com/qrave1/PairSpeak/internal/domain/models"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/jwtauth"
)

var tokenFlags struct {
	user string
	role string
	name string
	ttl  time.Duration
}

// tokenCmd выпускает токен для сервисных клиентов и локальной отладки
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed access token",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.New()
		if err != nil {
			log.Fatalf("could not load config: %v", err)
		}

		token, err := jwtauth.NewVerifier(cfg.JWTSecret).Sign(
			models.Principal{ID: tokenFlags.user, Role: tokenFlags.role, Name: tokenFlags.name},
			tokenFlags.ttl,
		)
		if err != nil {
			log.Fatalf("sign token: %v", err)
		}

		fmt.Println(token)
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.user, "user", "", "subject user id")
	tokenCmd.Flags().StringVar(&tokenFlags.role, "role", models.RoleUser, "guest, user, moderator or admin")
	tokenCmd.Flags().StringVar(&tokenFlags.name, "name", "", "display name")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", time.Hour, "token lifetime")

	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(tokenCmd)
}
