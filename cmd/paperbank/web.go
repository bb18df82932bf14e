package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/bobinette/paperbank/gin"
)

func init() {
	RootCmd.AddCommand(&WebCommand)
}

var WebCommand = cobra.Command{
	Use:   "web",
	Short: "Start the web server",
	Long:  "Start the web server",
	Run: func(cmd *cobra.Command, args []string) {
		handler, err := gin.New(paperService, userService, userStore, googleClient, tokenEncoder)
		if err != nil {
			logger.Fatal("could not create server: ", err)
		}

		addr := webAddr
		if addr == "" {
			addr = ":1705"
		}

		logger.Print("server started, listening on ", addr)
		logger.Fatal(http.ListenAndServe(addr, handler))
	},
}
