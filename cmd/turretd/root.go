package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stellar/stellar-turrets/api"
)

var rootCmd = &cobra.Command{
	Use:   "turretd",
	Short: "Stellar turret node",
	Long:  `turretd hosts TxFunctions, gates uploads behind fee payments, and co-signs signer rotations for the turret federation.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the turretd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(api.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
