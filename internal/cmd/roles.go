package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roundtable-dev/roundtable/internal/config"
	"github.com/roundtable-dev/roundtable/internal/logging"
	"github.com/roundtable-dev/roundtable/internal/role"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List available roles",
	Long: `List the roles loaded from the configured roles directory.

Each role is defined in a YAML file with a name, description, and the
responsibilities, expertise, and characteristics used to build its
generation prompts.`,
	RunE: runRolesList,
}

var rolesVerbose bool

func init() {
	rootCmd.AddCommand(rolesCmd)
	rolesCmd.Flags().BoolVarP(&rolesVerbose, "verbose", "v", false, "show full role details")
}

func runRolesList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	roles, err := role.LoadDir(cfg.Paths.RolesDir, logging.NopLogger())
	if err != nil {
		return fmt.Errorf("failed to load roles from %s: %w", cfg.Paths.RolesDir, err)
	}
	if len(roles) == 0 {
		fmt.Printf("No roles found in %s\n", cfg.Paths.RolesDir)
		return nil
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%d roles in %s", len(roles), cfg.Paths.RolesDir)))
	fmt.Println()
	for _, r := range roles {
		fmt.Printf("%s  %s\n", roleNameStyle.Render(r.ID), r.Name)
		if r.Description != "" {
			fmt.Printf("  %s\n", dimStyle.Render(r.Description))
		}
		if rolesVerbose {
			printRoleList("expertise", r.Expertise)
			printRoleList("responsibilities", r.Responsibilities)
			printRoleList("characteristics", r.Characteristics)
			if r.Weight != 0 {
				fmt.Printf("  %s %.1f\n", dimStyle.Render("weight:"), r.Weight)
			}
		}
		fmt.Println()
	}
	return nil
}

func printRoleList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("  %s %s\n", dimStyle.Render(label+":"), strings.Join(items, ", "))
}
