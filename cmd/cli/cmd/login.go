package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rentaiagent/adapters/backend"
	"rentaiagent/internal/config"
	"rentaiagent/internal/errors"
	"rentaiagent/internal/logging"
)

var (
	loginEmail    string
	loginPassword string
	loginRemember bool
	productsJSON  bool
)

// loginCmd stores a session token
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Long: `Log in with email and password. The token is kept for this session
only unless --remember is given. A missing password is read from stdin.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd clears the stored session
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(config.Get(), logging.Logger)
		if err != nil {
			return err
		}
		if err := rt.session.Clear(cmd.Context()); err != nil {
			return err
		}
		newWriter(cmd.OutOrStdout()).Success("Logged out")
		return nil
	},
}

// productsCmd lists the logged-in user's products
var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List your products",
	Args:  cobra.NoArgs,
	RunE:  runProducts,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(productsCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "email address")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (read from stdin when empty)")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "keep the session across runs")
	productsCmd.Flags().BoolVar(&productsJSON, "json", false, "print JSON")
}

func runLogin(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(config.Get(), logging.Logger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	in := bufio.NewReader(cmd.InOrStdin())
	email, password := strings.TrimSpace(loginEmail), loginPassword
	if email == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Email: ")
		line, _ := in.ReadString('\n')
		email = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		line, _ := in.ReadString('\n')
		password = strings.TrimRight(line, "\r\n")
	}
	if email == "" || password == "" {
		return errors.Validation("email and password are required", nil)
	}

	res, err := rt.client.Login(ctx, backend.LoginRequest{Email: email, Password: password, RememberMe: loginRemember})
	if err != nil {
		if hint := rt.client.Hint(ctx, err); hint != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), hint)
		}
		return err
	}
	if err := rt.session.Login(ctx, res, loginRemember); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	newWriter(cmd.OutOrStdout()).Success("Logged in as %s", res.Email)
	return nil
}

func runProducts(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(config.Get(), logging.Logger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	token, err := rt.session.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w (run rentai login first)", err)
	}

	products, err := rt.client.MyProducts(ctx, token)
	switch {
	case err == nil:
		if err := rt.session.SaveProducts(ctx, products); err != nil {
			logging.Warn("failed to cache products", zap.Error(err))
		}
	case errors.IsType(err, errors.TypeUnauthorized):
		_ = rt.session.Clear(ctx)
		return fmt.Errorf("%w (run rentai login again)", err)
	case errors.IsType(err, errors.TypeNetwork):
		cached, cerr := rt.session.Products(ctx)
		if cerr != nil || cached == nil {
			if hint := rt.client.Hint(ctx, err); hint != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), hint)
			}
			return err
		}
		newWriter(cmd.ErrOrStderr()).Warning("Backend unreachable, showing cached products")
		products = cached
	default:
		return err
	}

	if productsJSON {
		return printJSON(cmd.OutOrStdout(), products)
	}
	w := newWriter(cmd.OutOrStdout())
	if len(products) == 0 {
		w.Info("You have not opted into any products yet.")
		return nil
	}
	t := w.NewTable("ID", "NAME", "PLAN", "STATUS", "SINCE")
	for _, p := range products {
		t.AddRow(p.ProductID, p.ProductName, p.Plan, p.Status, p.SubscriptionDate)
	}
	t.Render()
	return nil
}
