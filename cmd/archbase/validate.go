package main

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/archbase/archbase-cli/pkg/util"
	"github.com/archbase/archbase-cli/pkg/validator"
)

var errInvalid = errors.New("validation failed")

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Check generated code and project setup",
		Subcommands: []*cli.Command{
			{
				Name:      "file",
				Usage:     "Validate one TypeScript or TSX file",
				ArgsUsage: "<file>",
				Action:    runValidateFileCmd,
			},
			{
				Name:      "project",
				Usage:     "Validate package.json, tsconfig.json and every source under src/",
				ArgsUsage: "<dir>",
				Action:    runValidateProjectCmd,
			},
			{
				Name:  "generated",
				Usage: "Validate the most recently written files in the generated directories",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Value: ".",
						Usage: "Project root",
					},
					&cli.IntFlag{
						Name:  "limit",
						Value: 10,
						Usage: "Maximum number of files to check",
					},
				},
				Action: runValidateGeneratedCmd,
			},
		},
	}
}

func (st *appState) newValidator() *validator.Validator {
	return validator.NewValidator(validator.Options{
		Workers: st.cfg.Scan.Workers,
		Logger:  st.logger,
	})
}

func runValidateFileCmd(c *cli.Context) error {
	path, err := requireArg(c, "file")
	if err != nil {
		return err
	}
	st := stateFrom(c)
	v := st.newValidator()
	defer v.Close()

	result := v.ValidateFile(path)
	f := st.formatter(c)
	if err := f.Output(validationView(result, f.Colored())); err != nil {
		return err
	}
	return invalidError(result.Valid)
}

func runValidateProjectCmd(c *cli.Context) error {
	dir, err := requireArg(c, "dir")
	if err != nil {
		return err
	}
	st := stateFrom(c)
	v := st.newValidator()
	defer v.Close()

	result, err := v.ValidateProject(c.Context, dir)
	if err != nil {
		return err
	}
	f := st.formatter(c)
	if err := f.Output(validationView(result, f.Colored())); err != nil {
		return err
	}
	return invalidError(result.Valid)
}

func runValidateGeneratedCmd(c *cli.Context) error {
	st := stateFrom(c)
	files, err := validator.GeneratedFiles(c.String("dir"), c.Int("limit"))
	if err != nil {
		return err
	}
	f := st.formatter(c)
	if len(files) == 0 {
		if f.Structured() {
			return f.Output([]*validator.ValidationResult{})
		}
		f.Warning("No generated files found in %s", c.String("dir"))
		return nil
	}

	v := st.newValidator()
	defer v.Close()
	results, err := v.ValidateFiles(c.Context, files)
	if err != nil {
		return err
	}
	if err := f.Output(batchValidationView(results, f.Colored())); err != nil {
		return err
	}
	for _, r := range results {
		if !r.Valid {
			return invalidError(false)
		}
	}
	return nil
}

func invalidError(valid bool) error {
	if valid {
		return nil
	}
	return &util.CommandError{Op: "validate", Err: errInvalid}
}
