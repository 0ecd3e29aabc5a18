package envelope

import (
	"github.com/spf13/cobra"
	"github/chapool/go-txenvelope/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("envelope",
		newDecode(),
		newHash(),
		newSign(),
	)
}
