package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rafabd1/LeakHound/core/validator"
	"github.com/rafabd1/LeakHound/utils"
	"github.com/spf13/cobra"
)

var validators = map[string]validator.Func{
	"domain": validator.Domain,
	"email":  validator.Email,
	"idcard": validator.IDCard,
	"ip":     validator.IPAddress,
	"key":    validator.KeyFormat,
	"phone":  validator.Phone,
}

func validatorKinds() []string {
	kinds := make([]string, 0, len(validators))
	for k := range validators {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

var validateCmd = &cobra.Command{
	Use:       "validate <kind> <value>",
	Short:     "Run a single validator on a value",
	Long:      "Run one of the finding validators (" + strings.Join(validatorKinds(), ", ") + ") and print the result as JSON.",
	Args:      cobra.ExactArgs(2),
	ValidArgs: validatorKinds(),
	RunE: func(cmd *cobra.Command, args []string) error {
		fn, ok := validators[strings.ToLower(args[0])]
		if !ok {
			return utils.NewError(utils.ConfigError,
				fmt.Sprintf("unknown validator %q (want one of %s)", args[0], strings.Join(validatorKinds(), ", ")), nil)
		}

		res := fn.Validate(args[1])
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))

		if !res.Valid {
			return utils.NewError(utils.ProcessingError, fmt.Sprintf("invalid %s: %s", args[0], res.Reason), nil)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
