package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "smilabus",
	Short:        "Smila bus schedule",
	Long:         "Timetables, stops and favorite routes of the Smila city buses",
	SilenceUsage: true,
}

var (
	configPath  string
	feedSource  string
	storageName string
	dsn         string
	dataDir     string
	feedHeaders []string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVarP(&feedSource, "feed", "", "", "Feed zip, directory or URL (default: built in)")
	rootCmd.PersistentFlags().StringVarP(&storageName, "storage", "", "", "Favorites storage: memory, sqlite, postgres or filesystem")
	rootCmd.PersistentFlags().StringVarP(&dsn, "dsn", "", "", "Postgres connection string")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "", "", "Directory for sqlite and filesystem storage")
	rootCmd.PersistentFlags().StringSliceVarP(
		&feedHeaders,
		"header",
		"",
		[]string{},
		"HTTP header sent when downloading the feed",
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func parseHeaders(headers []string) (map[string]string, error) {
	parsed := map[string]string{}
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("'%s' is not on form <key>:<value>", header)
		}
		parsed[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return parsed, nil
}
