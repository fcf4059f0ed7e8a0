/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ssargent/bptreeidx/pkg/bptree"
	"github.com/ssargent/bptreeidx/pkg/codec"
	"github.com/ssargent/bptreeidx/pkg/config"
)

type treeContextKey struct{}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bptreectl",
	Short: "bptreectl - an ordered, disk-persistent B-tree index",
	Long: `bptreectl opens a disk-persistent B-tree index of uint64 keys and
lets you insert, look up, and iterate its contents from the shell.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOrBootstrapConfig(cmd)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.StorageDir, 0755); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}

		tree, err := bptree.Open(bptree.Options[uint64]{
			Degree:       cfg.Degree,
			Codec:        codec.NewUint64Codec(),
			MetadataPath: cfg.MetadataPath,
			StorageDir:   cfg.StorageDir,
			StorageFile:  cfg.StorageFile,
			CacheSize:    cfg.CacheSize,
		})
		if err != nil {
			return fmt.Errorf("failed to open tree: %w", err)
		}

		cmd.SetContext(context.WithValue(cmd.Context(), treeContextKey{}, tree))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		tree, err := treeFromContext(cmd)
		if err != nil {
			return nil
		}
		return tree.Close()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a bptreectl config file (default: "+config.GetDefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for the tree's metadata and node storage; overrides the config file")
	rootCmd.PersistentFlags().IntP("degree", "n", 64, "Branching factor for a newly created tree, overriding the config file; ignored when reopening an existing one")
	rootCmd.PersistentFlags().Int("cache-size", 10000, "Maximum number of resident nodes kept in memory; overrides the config file")
}

// loadOrBootstrapConfig loads the bptreectl config file, bootstrapping a
// fresh default one if none exists yet, then applies any flags the caller
// explicitly passed on top as overrides.
func loadOrBootstrapConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = config.GetDefaultConfigPath()
	}

	dataDir, _ := cmd.Flags().GetString("data-dir")

	var cfg *config.Config
	if config.ConfigExists(cfgPath) {
		loaded, err := config.LoadConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else {
		bootstrapped, err := config.Bootstrap(cfgPath, dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to bootstrap config: %w", err)
		}
		cfg = bootstrapped
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.MetadataPath = filepath.Join(dataDir, "tree.meta")
		cfg.StorageDir = dataDir
	}
	if cmd.Flags().Changed("degree") {
		cfg.Degree, _ = cmd.Flags().GetInt("degree")
	}
	if cmd.Flags().Changed("cache-size") {
		cfg.CacheSize, _ = cmd.Flags().GetInt("cache-size")
	}

	return cfg, nil
}

func treeFromContext(cmd *cobra.Command) (*bptree.Tree[uint64], error) {
	tree, ok := cmd.Context().Value(treeContextKey{}).(*bptree.Tree[uint64])
	if !ok {
		return nil, fmt.Errorf("tree not found in command context")
	}
	return tree, nil
}
