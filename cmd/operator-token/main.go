package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/angelmondragon/retailpos-backend/pkg/auth"
	"github.com/angelmondragon/retailpos-backend/pkg/config"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
)

// operator-token mints a bearer token for a register operator. Operator
// accounts live outside this service, so tokens are issued out of band.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "operator-token"})

	_ = godotenv.Load()

	operator := flag.String("operator", "", "operator id (uuid); generated when empty")
	role := flag.String("role", string(enums.OperatorRoleCashier), "operator role: cashier|admin")
	flag.Parse()

	var jwtCfg config.JWTConfig
	if err := envconfig.Process("", &jwtCfg); err != nil {
		logg.Error(ctx, "failed to load jwt config", err)
		os.Exit(1)
	}

	parsedRole, err := enums.ParseOperatorRole(*role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -role: %v\n", err)
		os.Exit(2)
	}

	operatorID := uuid.New()
	if *operator != "" {
		operatorID, err = uuid.Parse(*operator)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -operator: %v\n", err)
			os.Exit(2)
		}
	}

	token, err := auth.MintAccessToken(jwtCfg, time.Now(), auth.AccessTokenPayload{
		OperatorID: operatorID,
		Role:       parsedRole,
	})
	if err != nil {
		logg.Error(ctx, "failed to mint token", err)
		os.Exit(1)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{"operator_id": operatorID.String(), "role": string(parsedRole)}), "operator token minted")
	fmt.Println(token)
}
