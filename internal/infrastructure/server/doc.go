// Package server assembles the dogeterm backend: config, logger and
// Prometheus registry; the plugin chain factory with its shared alias
// table and themes; the process-wide terminal manager; the WebSocket hub
// that is every session's output sink; the tool registry; and the gin
// router with its middleware.
//
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//		return err
//	}
//	defer srv.Close()
//	return srv.Run(ctx)
package server
