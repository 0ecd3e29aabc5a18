package command

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ReadHexArg decodes the single 0x-prefixed argument, or stdin when it is "-".
func ReadHexArg(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.New("expected exactly one hex argument")
	}

	in := args[0]
	if in == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
		in = string(b)
	}

	raw, err := hexutil.Decode(strings.TrimSpace(in))
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex input")
	}

	return raw, nil
}

// PrintJSON writes v as indented JSON to the command's output.
func PrintJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
