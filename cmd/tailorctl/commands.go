package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/raushankrgupta/tailor-connect/config"
	"github.com/raushankrgupta/tailor-connect/measurement"
	"github.com/raushankrgupta/tailor-connect/onboarding"
	"github.com/raushankrgupta/tailor-connect/recommend"
	"github.com/raushankrgupta/tailor-connect/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newConvertCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:     "convert Name=value...",
		Short:   "Convert a measurement set between cm and inch",
		Example: "  tailorctl convert --from cm --to inch Chest=98 Waist=82",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.OutOrStdout(), from, to, args)
		},
	}
	cmd.Flags().StringVar(&from, "from", "cm", "Unit of the given values")
	cmd.Flags().StringVar(&to, "to", "inch", "Unit to convert to")
	return cmd
}

func runConvert(out io.Writer, from, to string, args []string) error {
	fromUnit, err := measurement.ParseUnit(from)
	if err != nil {
		return err
	}
	toUnit, err := measurement.ParseUnit(to)
	if err != nil {
		return err
	}
	set, err := parseAssignments(args)
	if err != nil {
		return err
	}
	converted, err := measurement.Convert(set, fromUnit, toUnit)
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"unit": toUnit, "measurements": converted})
}

func parseAssignments(args []string) (measurement.Set, error) {
	set := measurement.Set{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected Name=value, got %q", arg)
		}
		name, ok := measurement.ParseName(key)
		if !ok {
			return nil, fmt.Errorf("unknown measurement %q", key)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		set[name] = v
	}
	return set, nil
}

func newValidateCmd() *cobra.Command {
	var step int
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a profile JSON document, optionally as one onboarding step",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runValidate(in, cmd.OutOrStdout(), step)
		},
	}
	cmd.Flags().IntVar(&step, "step", 0, "Validate only the fields of this onboarding step (1-3)")
	return cmd
}

func runValidate(in io.Reader, out io.Writer, step int) error {
	raw := map[string]any{}
	dec := json.NewDecoder(in)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	var fields []string
	if step > 0 {
		fields = onboarding.Fields(onboarding.Step(step))
		if len(fields) == 0 {
			return fmt.Errorf("step %d has no fields", step)
		}
	}

	patch, errs := validation.ValidateProfile(raw, fields...)
	if len(errs) > 0 {
		if err := writeJSON(out, map[string]any{"valid": false, "errors": errs}); err != nil {
			return err
		}
		return fmt.Errorf("%d invalid field(s)", len(errs))
	}
	return writeJSON(out, map[string]any{"valid": true, "profile": patch})
}

func newRecommendCmd() *cobra.Command {
	var garment, details, location string
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Ask the model for tailor recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := map[string]any{
				"garmentType":      garment,
				"designDetails":    details,
				"customerLocation": location,
			}
			req, errs := validation.ValidateRecommendation(raw)
			if len(errs) > 0 {
				return fmt.Errorf("invalid request: %v", errs)
			}

			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			gen, err := recommend.NewGeminiGenerator(cmd.Context(), cfg.Gemini.APIKey, cfg.Gemini.Model)
			if err != nil {
				return err
			}
			defer gen.Close()

			logger.Debug("requesting recommendations", zap.String("garment", req.GarmentType))
			candidates, err := recommend.New(gen, logger).Recommend(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), candidates)
		},
	}
	cmd.Flags().StringVar(&garment, "garment", "", "Garment type")
	cmd.Flags().StringVar(&details, "details", "", "Design details")
	cmd.Flags().StringVar(&location, "location", "", "Customer location")
	return cmd
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
