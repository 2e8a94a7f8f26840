// Package node wires the mempool, runtime and gossip transport into the
// event loop: a single-threaded select over network events, the slot
// ticker and an outbound publish queue, with the runtime held under a
// reader/writer lock and the mempool under its own mutex, never both at
// once across blocking work.
package node

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"ledgerd/block"
	"ledgerd/codec"
	"ledgerd/extrinsic"
	"ledgerd/keyring"
	"ledgerd/mempool"
	"ledgerd/p2p"
	"ledgerd/runtime"
)

// Config carries the block-authorship scheduling knobs.
type Config struct {
	SlotWidth  time.Duration
	BlockLimit int // candidates drained per produced block; 0 means the default of 10
}

// DefaultConfig returns the node's reference constants.
func DefaultConfig() Config {
	return Config{SlotWidth: p2p.DefaultSlotWidth, BlockLimit: 10}
}

func (c Config) blockLimit() int {
	if c.BlockLimit > 0 {
		return c.BlockLimit
	}
	return 10
}

// publishJob is one queued outbound gossip publish, drained by the loop so
// a slow publish never blocks the caller that enqueued it.
type publishJob struct {
	topic string
	data  []byte
}

// Node owns every process-wide collaborator and drives the node loop.
type Node struct {
	cfg Config
	log *logrus.Logger

	p2p *p2p.Node

	mempoolMu sync.Mutex
	mempool   *mempool.Pool

	runtimeMu sync.RWMutex
	runtime   *runtime.Runtime

	outbox chan publishJob
}

// New constructs a Node over an already-open p2p transport, runtime and
// mempool. Genesis, if needed, must already have been applied to rt.
func New(cfg Config, p2pNode *p2p.Node, rt *runtime.Runtime, pool *mempool.Pool, log *logrus.Logger) *Node {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Node{
		cfg:     cfg,
		log:     log,
		p2p:     p2pNode,
		mempool: pool,
		runtime: rt,
		outbox:  make(chan publishJob, 256),
	}
}

// Run blocks until ctx is cancelled, driving the select loop over inbound
// gossip, the slot ticker, and the publish outbox. CPU-bound signature
// verification (inside ExecuteBlock) runs on its own worker pool; the loop
// waits for that pool to finish while it applies or produces a block.
func (n *Node) Run(ctx context.Context) error {
	extCh, err := n.p2p.Subscribe(p2p.TopicExtrinsics)
	if err != nil {
		return fmt.Errorf("node: subscribe extrinsics: %w", err)
	}
	blockCh, err := n.p2p.Subscribe(p2p.TopicBlocks)
	if err != nil {
		return fmt.Errorf("node: subscribe blocks: %w", err)
	}

	ticker := time.NewTicker(slotTickInterval(n.cfg.SlotWidth))
	defer ticker.Stop()

	// Gossipsub loops locally-published messages back to our own
	// subscriptions. SubmitLocal has already pooled the extrinsic and
	// ProduceBlock has already executed the block, so self messages are
	// dropped here rather than applied twice.
	self := n.p2p.SelfID()

	for {
		select {
		case <-ctx.Done():
			return nil

		case job := <-n.outbox:
			if err := n.p2p.Publish(job.topic, job.data); err != nil {
				n.log.WithError(err).Warnf("node: publish on %s failed", job.topic)
			}

		case msg := <-extCh:
			if msg.From.String() == self {
				continue
			}
			n.handleInboundExtrinsic(msg.Data)

		case msg := <-blockCh:
			if msg.From.String() == self {
				continue
			}
			n.handleInboundBlock(msg.Data)

		case now := <-ticker.C:
			n.maybeProduceBlock(now)
		}
	}
}

// slotTickInterval polls at a fraction of the slot width so a node doesn't
// miss the instant its slot starts.
func slotTickInterval(width time.Duration) time.Duration {
	d := width / 4
	if d <= 0 {
		d = time.Second
	}
	return d
}

// handleInboundExtrinsic decodes a gossiped extrinsic and pushes it onto
// the local mempool. Decode failures are logged and dropped.
func (n *Node) handleInboundExtrinsic(data []byte) {
	var ext extrinsic.Unchecked
	if err := codec.Decode(data, &ext); err != nil {
		n.log.WithError(err).Warn("node: dropping malformed gossiped extrinsic")
		return
	}
	n.mempoolMu.Lock()
	trace, err := n.mempool.Submit(ext)
	n.mempoolMu.Unlock()
	if err != nil {
		n.log.WithError(err).Debug("node: mempool rejected gossiped extrinsic")
		return
	}
	n.log.WithFields(logrus.Fields{"signer": ext.Signer, "nonce": ext.Nonce, "trace": trace}).
		Debug("node: pooled gossiped extrinsic")
}

// SubmitLocal is the RPC /submit entry point: push onto the local mempool
// and enqueue the bytes for gossip onto the extrinsics topic.
func (n *Node) SubmitLocal(ext extrinsic.Unchecked) error {
	n.mempoolMu.Lock()
	trace, err := n.mempool.Submit(ext)
	n.mempoolMu.Unlock()
	if err != nil {
		return err
	}
	n.log.WithFields(logrus.Fields{"signer": ext.Signer, "nonce": ext.Nonce, "trace": trace}).
		Debug("node: pooled submitted extrinsic")
	n.enqueuePublish(p2p.TopicExtrinsics, codec.Encode(ext))
	return nil
}

func (n *Node) enqueuePublish(topic string, data []byte) {
	select {
	case n.outbox <- publishJob{topic: topic, data: data}:
	default:
		n.log.Warnf("node: outbox full, dropping publish on %s", topic)
	}
}

// handleInboundBlock decodes a gossiped block, applies it, and evicts any
// mempool entries it included so this node never later seals a duplicate.
func (n *Node) handleInboundBlock(data []byte) {
	var b block.Block
	if err := codec.Decode(data, &b); err != nil {
		n.log.WithError(err).Warn("node: dropping malformed gossiped block")
		return
	}

	type signerNonce struct {
		signer keyring.AccountId
		nonce  uint32
	}
	included := make([]signerNonce, len(b.Extrinsics))
	for i, ext := range b.Extrinsics {
		included[i] = signerNonce{signer: ext.Signer, nonce: ext.Nonce}
	}

	n.runtimeMu.Lock()
	err := n.runtime.ExecuteBlock(b)
	n.runtimeMu.Unlock()
	if err != nil {
		n.log.WithError(err).Warn("node: rejected inbound block")
		return
	}
	n.log.WithFields(logrus.Fields{
		"height": b.Header.BlockNumber,
		"digest": blockDigest(data),
	}).Info("node: applied inbound block")

	n.mempoolMu.Lock()
	n.mempool.Retain(func(ext extrinsic.Unchecked) bool {
		for _, sn := range included {
			if ext.Signer == sn.signer && ext.Nonce == sn.nonce {
				return false
			}
		}
		return true
	})
	n.mempoolMu.Unlock()
}

// maybeProduceBlock checks the slot schedule and, if this node is the
// author for now, produces and gossips a block.
func (n *Node) maybeProduceBlock(now time.Time) {
	sorted := n.p2p.SortedPeerIDs()
	if p2p.IsSoloNode(sorted) {
		return
	}
	if !p2p.IsMySlot(n.p2p.SelfID(), sorted, now, n.cfg.SlotWidth) {
		return
	}
	if err := n.ProduceBlock(); err != nil {
		n.log.WithError(err).Warn("node: block production failed")
	}
}

// ProduceBlock drains mempool candidates, admits a gap-free nonce-ordered
// prefix per signer, executes the resulting block locally, and gossips
// the sealed bytes on success.
func (n *Node) ProduceBlock() error {
	n.mempoolMu.Lock()
	candidates := n.mempool.DrainForBlock(n.cfg.blockLimit())
	n.mempoolMu.Unlock()
	if len(candidates) == 0 {
		return nil
	}

	n.runtimeMu.RLock()
	admitted := admitNonceOrdered(candidates, n.runtime.System.Nonce)
	nextHeight := n.runtime.System.BlockNumber() + 1
	n.runtimeMu.RUnlock()

	b := block.Block{Header: block.Header{BlockNumber: nextHeight}, Extrinsics: admitted}
	encoded := codec.Encode(b)

	n.runtimeMu.Lock()
	err := n.runtime.ExecuteBlock(b)
	n.runtimeMu.Unlock()
	if err != nil {
		n.log.WithError(err).Warn("node: locally-produced block failed to execute, dropping")
		return nil
	}

	n.log.WithFields(logrus.Fields{
		"height":     b.Header.BlockNumber,
		"extrinsics": len(admitted),
		"digest":     blockDigest(encoded),
	}).Info("node: produced block")
	n.enqueuePublish(p2p.TopicBlocks, encoded)
	return nil
}

// admitNonceOrdered groups candidates by signer, sorts each group by
// nonce, and keeps only the longest gap-free prefix starting at each
// signer's current on-chain nonce. Extrinsics past the first gap are
// dropped from this block entirely rather than re-queued for a later one.
func admitNonceOrdered(candidates []extrinsic.Unchecked, nonceOf func(keyring.AccountId) uint32) []extrinsic.Unchecked {
	bySigner := make(map[keyring.AccountId][]extrinsic.Unchecked)
	for _, ext := range candidates {
		bySigner[ext.Signer] = append(bySigner[ext.Signer], ext)
	}

	signers := make([]keyring.AccountId, 0, len(bySigner))
	for s := range bySigner {
		signers = append(signers, s)
	}
	sort.Slice(signers, func(i, j int) bool { return signers[i].Less(signers[j]) })

	var admitted []extrinsic.Unchecked
	for _, signer := range signers {
		group := bySigner[signer]
		sort.Slice(group, func(i, j int) bool { return group[i].Nonce < group[j].Nonce })

		expected := nonceOf(signer)
		for _, ext := range group {
			if ext.Nonce != expected {
				break
			}
			admitted = append(admitted, ext)
			expected++
		}
	}
	return admitted
}

// NonceFor implements the RPC /nonce semantics: the on-chain nonce plus the
// count of this node's pending extrinsics from who, so a client can submit
// several transactions back-to-back with correct sequential nonces before
// any block seals.
func (n *Node) NonceFor(who keyring.AccountId) uint32 {
	n.runtimeMu.RLock()
	base := n.runtime.System.Nonce(who)
	n.runtimeMu.RUnlock()

	n.mempoolMu.Lock()
	pending := n.mempool.CountFrom(who)
	n.mempoolMu.Unlock()

	return base + uint32(pending)
}

// StateDump renders a human-readable debug dump for GET /state, shared
// verbatim with the CLI's `state` command so both surfaces format the
// same snapshot the same way.
func (n *Node) StateDump() string {
	var b strings.Builder
	n.runtimeMu.RLock()
	fmt.Fprintf(&b, "block_number: %d\n", n.runtime.System.BlockNumber())
	fmt.Fprintln(&b, "balances:")
	for _, kp := range []keyring.Keypair{keyring.Alice(), keyring.Bob(), keyring.Charlie()} {
		fmt.Fprintf(&b, "  %s: %s (nonce %d)\n", kp.Public, n.runtime.Balances.Balance(kp.Public), n.runtime.System.Nonce(kp.Public))
	}
	n.runtimeMu.RUnlock()

	n.mempoolMu.Lock()
	fmt.Fprintf(&b, "mempool: %d pending\n", n.mempool.Len())
	n.mempoolMu.Unlock()
	return b.String()
}

// blockDigest computes a non-consensus blake2b-256 debug digest of encoded
// block bytes, logged purely so operators can correlate the same block
// across peer logs without re-encoding it by hand. Never persisted, never
// compared for validity.
func blockDigest(encoded []byte) string {
	sum := blake2b.Sum256(encoded)
	return fmt.Sprintf("%x", sum[:8])
}
