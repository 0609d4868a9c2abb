package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating/internal/database"
	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/utils"
	"github.com/iliyamo/store-rating/internal/validation"
)

// server migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := boot()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("schema applied", zap.Int("statements", len(database.Statements())))
		return nil
	},
}

var adminFlags validation.CreateUser

// server create-admin --name --email --password --address
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long:  "Create an administrator account. Registration through the API always yields role user, so the first admin is created here.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req := adminFlags
		req.Role = string(model.RoleAdmin)
		req.Normalize()
		if errs := validation.Struct(&req); len(errs) > 0 {
			for _, fe := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "  --%s: %s\n", fe.Path, fe.Message)
			}
			return errors.New("invalid admin account")
		}

		cfg, log, err := boot()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		hash, err := utils.HashPassword(req.Password, cfg.BcryptCost)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		u := &model.User{Name: req.Name, Email: req.Email, PasswordHash: hash, Address: req.Address, Role: model.RoleAdmin}
		if err := repository.NewUserRepo(db).Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return fmt.Errorf("a user with email %s already exists", req.Email)
			}
			return err
		}
		log.Info("admin created", zap.Uint64("id", u.ID), zap.String("email", u.Email))
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&adminFlags.Name, "name", "", "display name (3-60 characters)")
	f.StringVar(&adminFlags.Email, "email", "", "login email")
	f.StringVar(&adminFlags.Password, "password", "", "password (8-16 characters, one uppercase, one special)")
	f.StringVar(&adminFlags.Address, "address", "", "postal address")
	for _, name := range []string{"name", "email", "password", "address"} {
		_ = createAdminCmd.MarkFlagRequired(name)
	}
}
