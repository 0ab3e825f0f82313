package cmd

import (
	"fmt"

	"bigfiles/internal/query"
	"bigfiles/internal/server"

	"github.com/mordilloSan/go-logger/logger"
	"github.com/spf13/cobra"
)

var (
	flagAddr string
	flagPort int
	flagNoQR bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve duplicates and large files over HTTP on the local network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scfg := cfg.Server
		if cmd.Flags().Changed("addr") {
			scfg.Addr = flagAddr
		}
		if cmd.Flags().Changed("port") {
			scfg.Port = flagPort
		}

		st, err := openCatalog()
		if err != nil {
			return err
		}
		defer st.Close()

		host := scfg.Advertise
		if host == "" {
			host = scfg.Addr
		}
		url := server.AdvertisedURL(host, scfg.Port)
		fmt.Printf("Starting the server on %s\n", url)
		if !flagNoQR {
			if qr, err := server.TerminalQR(url); err != nil {
				logger.Warnf("QR code unavailable: %v", err)
			} else {
				fmt.Println("Scan the QR code below for the URL:")
				fmt.Println(qr)
			}
		}

		srv := server.New(query.New(st), server.Config{
			Addr:  scfg.Addr,
			Port:  scfg.Port,
			Limit: cfg.Limit,
			URL:   url,
		})
		if err := srv.Run(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Server stopped.")
		return nil
	},
}

func init() {
	serverCmd.Flags().StringVar(&flagAddr, "addr", "0.0.0.0", "address to bind")
	serverCmd.Flags().IntVar(&flagPort, "port", 3030, "port to bind")
	serverCmd.Flags().BoolVar(&flagNoQR, "no-qr", false, "do not print the QR code")
	rootCmd.AddCommand(serverCmd)
}
