package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/thumuadocu/market-api/internal/config"
	"github.com/thumuadocu/market-api/internal/db"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Schema tool for the Thu Mua Do Cu database",
	}

	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func upCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply the embedded schema (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				fmt.Print(db.Schema)
				return nil
			}

			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			if _, err := conn.ExecContext(ctx, db.Schema); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
			log.Println("✅ Схема применена")
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the schema without applying it")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which tables exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			missing := 0
			for _, table := range db.Tables {
				var exists bool
				err := conn.QueryRowContext(cmd.Context(), `
					SELECT EXISTS (
						SELECT 1 FROM information_schema.tables
						WHERE table_schema = current_schema() AND table_name = $1
					)
				`, table).Scan(&exists)
				if err != nil {
					return fmt.Errorf("failed to check table %s: %w", table, err)
				}

				state := "ok"
				if !exists {
					state = "missing"
					missing++
				}
				fmt.Printf("  %-16s %s\n", table, state)
			}

			if missing > 0 {
				fmt.Printf("\n%d table(s) missing, run `migrate up`\n", missing)
			}
			return nil
		},
	}
}

// openDB открывает соединение по DATABASE_URL; JWT и прочие секреты здесь не нужны
func openDB() (*sql.DB, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}
	cfg := config.FromEnv()

	conn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}
