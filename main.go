package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/WandernGeo/wandern-arweave-uploader/common"
	"github.com/WandernGeo/wandern-arweave-uploader/gcf"
	"github.com/WandernGeo/wandern-arweave-uploader/gcloud"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

func main() {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "yaml config file name",
		},
		altsrc.NewStringFlag(
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Value:   "",
				Usage:   "Name of the Cloud Function",
			},
		),
		altsrc.NewStringFlag(
			&cli.StringFlag{
				Name:    "project",
				Aliases: []string{"p"},
				Value:   "",
				Usage:   "GCP project ID",
			},
		),
		altsrc.NewStringFlag(
			&cli.StringFlag{
				Name:    "region",
				Aliases: []string{"r"},
				Value:   "us-central1",
				Usage:   "Region",
			},
		),
		altsrc.NewStringFlag(
			&cli.StringFlag{
				Name:    "runtime",
				Aliases: []string{"rt"},
				Value:   "",
				Usage:   "Runtime of the Cloud Function",
			},
		),
		altsrc.NewStringFlag(
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"src"},
				Value:   ".",
				Usage:   "Source directory to deploy",
			},
		),
		altsrc.NewStringFlag(
			&cli.StringFlag{
				Name:    "entry_point",
				Aliases: []string{"ep"},
				Value:   "",
				Usage:   "Name of the function entry point",
			},
		),
		altsrc.NewStringFlag(
			&cli.StringFlag{
				Name:    "memory",
				Aliases: []string{"mem"},
				Value:   "256MB",
				Usage:   "Memory limit of the Cloud Function",
			},
		),
		altsrc.NewStringFlag(
			&cli.StringFlag{
				Name:    "time_out",
				Aliases: []string{"to"},
				Value:   "60s",
				Usage:   "Timeout of the Cloud Function",
			},
		),
		altsrc.NewStringFlag(
			&cli.StringFlag{
				Name:    "environment_variables",
				Aliases: []string{"ev"},
				Value:   "",
				Usage:   "Environment variables of the Cloud Function as a JSON object",
			},
		),
		altsrc.NewStringFlag(
			&cli.StringFlag{
				Name:    "secret_variables",
				Aliases: []string{"sv"},
				Value:   "",
				Usage:   "Secret Manager references as a JSON object, e.g. {\"DB_PASSWORD\":\"projects/p/secrets/db-password:latest\"}",
			},
		),
		altsrc.NewBoolFlag(
			&cli.BoolFlag{
				Name:    "allow_unauthenticated",
				Aliases: []string{"au"},
				Value:   true,
				Usage:   "Allow unauthenticated HTTP invocations",
			},
		),
	}
	commands := []*cli.Command{
		{
			Name:    "deploy",
			Before:  altsrc.InitInputSourceWithContext(flags, altsrc.NewYamlSourceFromFlagFunc("config")),
			Aliases: []string{"d"},
			Flags:   flags,
			Usage:   "Deploys the Cloud Function via gcloud",

			Action: Deploy,
		},
		{
			Name:    "status",
			Before:  altsrc.InitInputSourceWithContext(flags, altsrc.NewYamlSourceFromFlagFunc("config")),
			Aliases: []string{"s"},
			Flags:   flags,
			Usage:   "Shows the state of the deployed Cloud Function",

			Action: Status,
		},
		{
			Name:    "delete",
			Before:  altsrc.InitInputSourceWithContext(flags, altsrc.NewYamlSourceFromFlagFunc("config")),
			Aliases: []string{"del"},
			Flags:   flags,
			Usage:   "Deletes the Cloud Function",

			Action: Delete,
		},
	}

	app := &cli.App{
		Name:     "wandern-deploy",
		Usage:    "Deploys the Wandern Arweave uploader Cloud Function",
		Commands: commands,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Not able to run the command. The reason is %s", err.Error())
	}
}

func Deploy(cCtx *cli.Context) error {
	deployParams, err := SetDeployParams(cCtx)
	if err != nil {
		return err
	}
	if err = gcloud.ValidateInputParams(*deployParams); err != nil {
		log.Println(err)
		return err
	}

	ctx := context.Background()

	// Lookup is informational only; gcloud itself decides create vs update.
	if client, cErr := gcf.Client(ctx); cErr != nil {
		log.Printf("Not able to query existing function state: %s", cErr.Error())
	} else {
		defer client.Close()
		wrapper := gcf.ServiceWrapper{Client: client}
		details, dErr := wrapper.GetFunctionDetails(ctx, deployParams.ProjectID, deployParams.Region, deployParams.FunctionName)
		switch {
		case dErr != nil:
			log.Printf("Not able to query existing function state: %s", dErr.Error())
		case details == nil:
			log.Println("Function does not exist yet. This deploy creates it.")
		default:
			log.Printf("Function exists (state %s). This deploy updates it.", details.State)
		}
	}

	deployer := gcloud.ServiceWrapper{
		Runner: gcloud.CommandRunner(),
		Out:    os.Stdout,
	}
	if err = deployer.Deploy(ctx, *deployParams); err != nil {
		return cli.Exit(err.Error(), gcloud.ExitCode(err))
	}
	return nil
}

func Status(cCtx *cli.Context) error {
	deployParams, err := SetDeployParams(cCtx)
	if err != nil {
		return err
	}
	name := deployParams.FunctionName
	if common.TrimAndCheckEmptyString(&name) {
		return &common.InputError{
			Message: "Function Name cannot be null",
		}
	}

	ctx := context.Background()
	client, err := gcf.Client(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	wrapper := gcf.ServiceWrapper{Client: client}
	details, err := wrapper.GetFunctionDetails(ctx, deployParams.ProjectID, deployParams.Region, name)
	if err != nil {
		log.Println(err)
		return err
	}
	if details == nil {
		log.Printf("Function %s is not deployed", name)
		return nil
	}
	log.Printf("Function %s: state=%s url=%s updated=%s",
		name, details.State, details.GetServiceConfig().GetUri(), details.GetUpdateTime().AsTime())
	return nil
}

func Delete(cCtx *cli.Context) error {
	deployParams, err := SetDeployParams(cCtx)
	if err != nil {
		return err
	}
	name := deployParams.FunctionName
	log.Println("Deleting Cloud Function-----", name)
	if common.TrimAndCheckEmptyString(&name) {
		return &common.InputError{
			Message: "Function Name cannot be null",
		}
	}

	deployer := gcloud.ServiceWrapper{
		Runner: gcloud.CommandRunner(),
		Out:    os.Stdout,
	}
	if err = deployer.Delete(context.Background(), *deployParams); err != nil {
		return cli.Exit(err.Error(), gcloud.ExitCode(err))
	}
	return nil
}

func SetDeployParams(cCtx *cli.Context) (*common.DeployParams, error) {
	deployParams := common.DeployParams{
		FunctionName:         cCtx.String("name"),
		ProjectID:            cCtx.String("project"),
		Region:               cCtx.String("region"),
		Runtime:              cCtx.String("runtime"),
		SourceDir:            cCtx.String("source"),
		EntryPoint:           cCtx.String("entry_point"),
		Memory:               cCtx.String("memory"),
		Timeout:              cCtx.String("time_out"),
		AllowUnauthenticated: cCtx.Bool("allow_unauthenticated"),
	}
	envVariables := cCtx.String("environment_variables")
	if !common.TrimAndCheckEmptyString(&envVariables) {
		result := make(map[string]string)
		if err := json.Unmarshal([]byte(envVariables), &result); err != nil {
			log.Println(err)
			return nil, err
		}
		deployParams.EnvironmentVariables = result
	}
	secretVariables := cCtx.String("secret_variables")
	if !common.TrimAndCheckEmptyString(&secretVariables) {
		result := make(map[string]string)
		if err := json.Unmarshal([]byte(secretVariables), &result); err != nil {
			log.Println(err)
			return nil, err
		}
		deployParams.SecretVariables = result
	}
	return &deployParams, nil
}
