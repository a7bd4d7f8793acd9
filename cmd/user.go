package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/lendbook/internal/config"
	"github.com/jon4hz/lendbook/internal/database"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage member accounts",
	Long:  `Create, list and promote member accounts without going through the web interface.`,
}

var userCreateCmdFlags struct {
	Admin    bool
	Password string
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a new account",
	Long:  `Create a new account. Without --password the password is read from the terminal.`,
	Example: `lendbook user create alice
lendbook user create root --admin`,
	Args: cobra.ExactArgs(1),
	RunE: createUser,
}

var userPromoteCmdFlags struct {
	Revoke bool
}

var userPromoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Grant or revoke administrator rights",
	Example: `lendbook user promote alice
lendbook user promote alice --revoke`,
	Args: cobra.ExactArgs(1),
	RunE: promoteUser,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	Args:  cobra.NoArgs,
	RunE:  listUsers,
}

func init() {
	userCreateCmd.Flags().BoolVar(&userCreateCmdFlags.Admin, "admin", false, "Create the account with administrator rights")
	userCreateCmd.Flags().StringVar(&userCreateCmdFlags.Password, "password", "", "Password for the new account (prompted if empty)")
	userPromoteCmd.Flags().BoolVar(&userPromoteCmdFlags.Revoke, "revoke", false, "Revoke administrator rights instead of granting them")

	userCmd.AddCommand(userCreateCmd, userPromoteCmd, userListCmd)
	rootCmd.AddCommand(userCmd)
}

func createUser(cmd *cobra.Command, args []string) error {
	_, engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	password := userCreateCmdFlags.Password
	if password == "" {
		password, err = readPassword(cmd)
		if err != nil {
			return err
		}
	}

	user, err := engine.CreateUser(cmd.Context(), args[0], password, userCreateCmdFlags.Admin)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user created", "username", user.Username, "id", user.ID, "admin", user.IsAdmin)
	return nil
}

func promoteUser(cmd *cobra.Command, args []string) error {
	_, engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	user, err := engine.PromoteUser(cmd.Context(), args[0], !userPromoteCmdFlags.Revoke)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	log.Info("user updated", "username", user.Username, "admin", user.IsAdmin)
	return nil
}

func listUsers(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close() //nolint: errcheck

	users, err := db.GetAllUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	admins := lo.CountBy(users, func(u database.User) bool { return u.IsAdmin })
	fmt.Printf("%d users, %d admins\n", len(users), admins)
	for _, u := range users {
		role := lo.Ternary(u.IsAdmin, "admin", "member")
		fmt.Printf("  %d\t%s\t%s\n", u.ID, u.Username, role)
	}
	return nil
}

// readPassword prompts twice on a terminal, or reads one line from piped stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(syscall.Stdin) //nolint:unconvert
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	cmd.Print("Password: ")
	first, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	cmd.Print("Confirm password: ")
	second, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
