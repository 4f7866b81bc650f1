package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var maxFixAttempts int

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Create, run, debug, and share tools",
}

var toolCreateCmd = &cobra.Command{
	Use:   "create [name] [description...]",
	Short: "Generate, test, and debug a new tool",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		outcome := a.pipeline.CreateTool(cmd.Context(), args[0], strings.Join(args[1:], " "))
		fmt.Println(outcome)
		return nil
	},
}

var toolRunCmd = &cobra.Command{
	Use:   "run [name] [instruction...]",
	Short: "Run a tool function chosen from a free-text instruction",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.runner.Run(cmd.Context(), args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Println(result)
		return nil
	},
}

var toolDebugCmd = &cobra.Command{
	Use:   "debug [name]",
	Short: "Re-validate an existing tool through the test-and-fix loop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if a.pipeline.DebugTool(cmd.Context(), args[0], maxFixAttempts) {
			fmt.Printf("%s passes all generated tests.\n", args[0])
			return nil
		}
		return fmt.Errorf("%s still failing after debugging", args[0])
	},
}

var toolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		printTools(cmd.Context(), a)
		return nil
	},
}

var toolInstallCmd = &cobra.Command{
	Use:   "install [name or description...]",
	Short: "Install a tool from the library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if a.installer == nil {
			return fmt.Errorf("no tool library configured")
		}

		query := strings.Join(args, " ")
		if len(args) == 1 {
			if err := a.installer.InstallByName(cmd.Context(), args[0]); err == nil {
				fmt.Printf("Installed %s.\n", args[0])
				return nil
			}
		}
		name, err := a.installer.FindAndInstall(cmd.Context(), query)
		if err != nil {
			return err
		}
		fmt.Printf("Installed %s.\n", name)
		return nil
	},
}

var toolPublishCmd = &cobra.Command{
	Use:   "publish [name]",
	Short: "Publish a local tool to the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if a.installer == nil {
			return fmt.Errorf("no tool library configured")
		}
		if err := a.installer.Publish(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Published %s.\n", args[0])
		return nil
	},
}

func init() {
	toolDebugCmd.Flags().IntVar(&maxFixAttempts, "max-attempts", 0, "fix attempt budget (0 uses the configured default)")

	toolCmd.AddCommand(toolCreateCmd)
	toolCmd.AddCommand(toolRunCmd)
	toolCmd.AddCommand(toolDebugCmd)
	toolCmd.AddCommand(toolListCmd)
	toolCmd.AddCommand(toolInstallCmd)
	toolCmd.AddCommand(toolPublishCmd)
}
