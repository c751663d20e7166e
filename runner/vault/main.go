package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/TopiaNetwork/topia-vault/cmd"
)

var mainCmd = &cobra.Command{Use: "topia-vault"}

func main() {
	mainCmd.AddCommand(cmd.WalletCmd())

	if mainCmd.Execute() != nil {
		os.Exit(1)
	}

}
