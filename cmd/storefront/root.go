package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/config"
)

type rootFlags struct {
	envFile  string
	apiURL   string
	state    string
	logLevel string
}

// newRootCmd builds the command tree. The returned func tears down the app built by
// the command and must run after Execute, whether the command failed or not.
func newRootCmd(out io.Writer, open storeOpener) (*cobra.Command, func() error) {
	var (
		flags rootFlags
		a     *app
	)

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the store, manage the cart and place orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err = newApp(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), open)
			return err
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file to load")
	pf.StringVar(&flags.apiURL, "api-url", "", "backend API root (overrides STOREFRONT_API_URL)")
	pf.StringVar(&flags.state, "state", "", "state backend: sqlite, redis or memory")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	get := func() *app { return a }
	root.AddCommand(
		newProductsCmd(get),
		newProductCmd(get),
		newCategoriesCmd(get),
		newCartCmd(get),
		newLoginCmd(get),
		newLogoutCmd(get),
		newRegisterCmd(get),
		newWhoamiCmd(get),
		newCheckoutCmd(get),
		newOrdersCmd(get),
		newAdminCmd(get),
	)
	closeApp := func() error {
		if a == nil {
			return nil
		}
		err := a.close()
		a = nil
		return err
	}
	return root, closeApp
}

func loadConfig(flags rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return nil, err
	}
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	if flags.state != "" {
		cfg.StateBackend = flags.state
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, cfg.Validate()
}
