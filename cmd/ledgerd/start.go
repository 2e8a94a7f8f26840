package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ledgerd/genesis"
	"ledgerd/kv"
	"ledgerd/mempool"
	"ledgerd/node"
	"ledgerd/p2p"
	"ledgerd/pkg/config"
	"ledgerd/rpc"
	"ledgerd/runtime"
)

func startCmd(log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start a ledgerd node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Network.Port, _ = cmd.Flags().GetUint16("port")
			}
			if cmd.Flags().Changed("rpc-port") {
				cfg.Network.RPCPort, _ = cmd.Flags().GetUint16("rpc-port")
			}
			if cmd.Flags().Changed("db-path") {
				cfg.Storage.DBPath, _ = cmd.Flags().GetString("db-path")
			}
			peers, _ := cmd.Flags().GetStringArray("peer")
			if len(peers) > 0 {
				cfg.Network.BootstrapPeers = peers
			}
			return runStart(log, *cfg)
		},
	}
	cmd.Flags().Uint16("port", 4001, "libp2p listen port")
	cmd.Flags().Uint16("rpc-port", 8080, "HTTP RPC listen port")
	cmd.Flags().String("db-path", "./ledgerd-db", "durable KV store directory")
	cmd.Flags().StringArray("peer", nil, "bootstrap peer multiaddr (repeatable)")
	return cmd
}

func runStart(log *logrus.Logger, cfg config.Config) error {
	if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(lvl)
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Logging.Level == "debug" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if zl, err := zcfg.Build(); err == nil {
		zap.ReplaceGlobals(zl)
		defer zl.Sync()
	}

	store, err := kv.Open(cfg.Storage.DBPath, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	rt, err := runtime.New(store, log)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	if err := genesis.MaybeApply(rt); err != nil {
		return fmt.Errorf("apply genesis: %w", err)
	}

	p2pNode, err := p2p.New(fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", cfg.Network.Port), log)
	if err != nil {
		return fmt.Errorf("start p2p host: %w", err)
	}
	defer p2pNode.Close()
	for _, addr := range cfg.Network.BootstrapPeers {
		if err := p2pNode.Dial(addr); err != nil {
			log.WithError(err).Warnf("failed to dial bootstrap peer %s", addr)
		}
	}

	slotWidth := cfg.Network.SlotWidth
	if slotWidth <= 0 {
		slotWidth = p2p.DefaultSlotWidth
	}
	n := node.New(node.Config{SlotWidth: slotWidth, BlockLimit: 10}, p2pNode, rt, mempool.New(0, 10), log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Network.RPCPort),
		Handler: rpc.New(n, log).Router(),
	}
	go func() {
		log.Infof("ledgerd: RPC listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("ledgerd: RPC server stopped")
		}
	}()

	log.Infof("ledgerd: p2p host %s listening on port %d", p2pNode.SelfID(), cfg.Network.Port)
	err = n.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	return err
}
