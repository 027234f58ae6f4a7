package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/config"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

// newAddUserCmd provisions an admin account together with its masjid, the
// same way signup does.
func newAddUserCmd(cfg func() *config.Config, d deps) *cobra.Command {
	var (
		email, password, name string
		masjidName, code      string
	)

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create an admin account and its masjid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(password) < middleware.MinPasswordLength {
				return middleware.ErrWeakPassword
			}
			email = model.NormalizeEmail(email)
			code = strings.ToUpper(strings.TrimSpace(code))
			if code == "" {
				return fmt.Errorf("--code is required")
			}

			store, err := d.openStore(cfg())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			hashed, err := middleware.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			var namePtr *string
			if name != "" {
				namePtr = &name
			}
			userID, err := store.CreateUser(ctx, email, hashed, namePtr)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			m, err := store.CreateMasjid(ctx, userID, masjidName, code)
			if err != nil {
				return fmt.Errorf("create masjid: %w", err)
			}
			if _, err := store.SaveSettings(ctx, model.DefaultSettings(m.ID)); err != nil {
				return fmt.Errorf("initialize settings: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s) for masjid %s [%s]\n", userID, email, m.Name, m.Code)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&email, "email", "", "Admin email")
	f.StringVar(&password, "password", "", "Admin password (min 8 characters)")
	f.StringVar(&name, "name", "", "Admin display name")
	f.StringVar(&masjidName, "masjid-name", "", "Masjid name")
	f.StringVar(&code, "code", "", "Display code, e.g. NOOR")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("masjid-name")
	return cmd
}
