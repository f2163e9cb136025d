package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/todo-reminder/cmd/api/commands"
)

// @title Todo Reminder API
// @version 1.0
// @description Projects, tasks and email reminders for a personal todo list

// @license.name MIT

// @host localhost:3001
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the API token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "todo-reminder",
		Short: "Todo Reminder API Server",
		Long:  `Todo Reminder keeps projects and tasks and emails a reminder when a task's reminder time arrives.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewHealthcheckCommand())
	rootCmd.AddCommand(commands.NewRemindCommand())
	rootCmd.AddCommand(commands.NewTokenCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
