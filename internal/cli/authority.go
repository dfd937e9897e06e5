package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"babyplate/internal/adapter/remote"
	"babyplate/internal/clock"
	"babyplate/internal/config"
)

var authorityCmd = &cobra.Command{
	Use:   "authority",
	Short: "Run an in-memory remote authority for development",
	Long: `Run an in-memory remote authority that devices can sync against.

Tokens are checked the same way clients create them: with BABYPLATE_REMOTE_AUTH=jwt
requests must carry an HS256 token signed with BABYPLATE_REMOTE_KEY, with oauth2 an
ID token from BABYPLATE_OIDC_ISSUER. State is lost on exit.`,
	Args: cobra.NoArgs,
	RunE: runAuthority,
}

var authorityAddr string

func init() {
	authorityCmd.Flags().StringVar(&authorityAddr, "addr", ":8090", "Listen address")
}

func runAuthority(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	var verifier remote.Verifier
	switch cfg.RemoteAuth {
	case config.AuthJWT:
		key, err := remote.ParseKey(cfg.RemoteKey)
		if err != nil {
			return err
		}
		verifier = remote.HMACVerifier{Key: key}
	case config.AuthOAuth2:
		if verifier, err = remote.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OAuthClientID); err != nil {
			return err
		}
	default:
		log.Warn("authority accepts unauthenticated requests")
	}

	h := remote.NewHandler(remote.NewAuthority(clock.Real{}), verifier, log.Named("authority"))
	log.Info("authority listening", zap.String("addr", authorityAddr), zap.String("auth", cfg.RemoteAuth))
	return listen(ctx, authorityAddr, h)
}
