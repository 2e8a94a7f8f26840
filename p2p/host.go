package p2p

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/sirupsen/logrus"
)

// Topic names for the two gossipsub topics this node publishes and
// subscribes to.
const (
	TopicExtrinsics = "extrinsics"
	TopicBlocks     = "blocks"
)

// Node wraps a libp2p host plus a gossipsub router over the two fixed
// topics, and tracks the set of currently connected peers under a
// reader/writer lock, updated on connect/disconnect and read on each slot
// tick.
//
// Peers are tracked via network.Notifiee rather than an LAN-discovery
// mechanism, since peers are reached by dialing an explicit multiaddr.
type Node struct {
	Host   host.Host
	PubSub *pubsub.PubSub

	log *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc

	topicMu sync.Mutex
	topics  map[string]*pubsub.Topic
	subs    map[string]*pubsub.Subscription

	peerMu sync.RWMutex
	peers  map[peer.ID]struct{}
}

// New creates a libp2p host listening on listenAddr and a gossipsub router
// in strict message validation mode over the fixed topics.
func New(listenAddr string, log *logrus.Logger) (*Node, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	h, err := libp2p.New(libp2p.ListenAddrStrings(listenAddr))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("p2p: create host: %w", err)
	}

	params := pubsub.DefaultGossipSubParams()
	params.HeartbeatInterval = 10 * time.Second
	ps, err := pubsub.NewGossipSub(ctx, h,
		pubsub.WithMessageSignaturePolicy(pubsub.StrictSign),
		pubsub.WithGossipSubParams(params),
	)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("p2p: create pubsub: %w", err)
	}

	n := &Node{
		Host:   h,
		PubSub: ps,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		topics: make(map[string]*pubsub.Topic),
		subs:   make(map[string]*pubsub.Subscription),
		peers:  map[peer.ID]struct{}{h.ID(): {}},
	}
	h.Network().Notify(n.notifiee())
	return n, nil
}

// notifiee returns a network.Notifiee that maintains n.peers on connect and
// disconnect, the only two events that mutate the peer set.
func (n *Node) notifiee() network.Notifiee {
	return &network.NotifyBundle{
		ConnectedF: func(_ network.Network, c network.Conn) {
			n.peerMu.Lock()
			n.peers[c.RemotePeer()] = struct{}{}
			n.peerMu.Unlock()
		},
		DisconnectedF: func(_ network.Network, c network.Conn) {
			n.peerMu.Lock()
			delete(n.peers, c.RemotePeer())
			n.peerMu.Unlock()
		},
	}
}

// Dial connects to addr (a multiaddr with a trailing /p2p/<id>) and records
// the remote peer. The ConnectedF notifiee handles the usual bookkeeping;
// Dial just surfaces a dial error to the caller.
func (n *Node) Dial(addr string) error {
	info, err := peer.AddrInfoFromString(addr)
	if err != nil {
		return fmt.Errorf("p2p: parse peer addr %s: %w", addr, err)
	}
	if err := n.Host.Connect(n.ctx, *info); err != nil {
		return fmt.Errorf("p2p: connect %s: %w", addr, err)
	}
	n.log.WithField("peer", info.ID).Info("p2p: dialed bootstrap peer")
	return nil
}

// SortedPeerIDs returns the lexicographically sorted b58 string form of
// every currently connected peer, including self — the exact input
// CurrentSlot-based authorship needs.
func (n *Node) SortedPeerIDs() []string {
	n.peerMu.RLock()
	ids := make([]string, 0, len(n.peers))
	for id := range n.peers {
		ids = append(ids, id.String())
	}
	n.peerMu.RUnlock()
	return SortedPeers(ids)
}

// SelfID returns this host's own peer ID string.
func (n *Node) SelfID() string { return n.Host.ID().String() }

func (n *Node) topic(name string) (*pubsub.Topic, error) {
	n.topicMu.Lock()
	defer n.topicMu.Unlock()
	if t, ok := n.topics[name]; ok {
		return t, nil
	}
	t, err := n.PubSub.Join(name)
	if err != nil {
		return nil, fmt.Errorf("p2p: join topic %s: %w", name, err)
	}
	n.topics[name] = t
	return t, nil
}

// Publish encodes bytes onto topic.
func (n *Node) Publish(topic string, data []byte) error {
	t, err := n.topic(topic)
	if err != nil {
		return err
	}
	if err := t.Publish(n.ctx, data); err != nil {
		return fmt.Errorf("p2p: publish on %s: %w", topic, err)
	}
	return nil
}

// Message is one inbound gossip payload.
type Message struct {
	From peer.ID
	Data []byte
}

// Subscribe joins topic (idempotently) and returns a channel delivering
// every inbound message, including messages this node itself publishes
// (gossipsub always loops back to the local subscriber).
func (n *Node) Subscribe(topic string) (<-chan Message, error) {
	n.topicMu.Lock()
	sub, ok := n.subs[topic]
	if !ok {
		// Join inline: n.topic takes topicMu itself, which is already held.
		t, joined := n.topics[topic]
		if !joined {
			var err error
			t, err = n.PubSub.Join(topic)
			if err != nil {
				n.topicMu.Unlock()
				return nil, fmt.Errorf("p2p: join topic %s: %w", topic, err)
			}
			n.topics[topic] = t
		}
		var err error
		sub, err = t.Subscribe()
		if err != nil {
			n.topicMu.Unlock()
			return nil, fmt.Errorf("p2p: subscribe %s: %w", topic, err)
		}
		n.subs[topic] = sub
	}
	n.topicMu.Unlock()

	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			msg, err := sub.Next(n.ctx)
			if err != nil {
				n.log.WithError(err).Debug("p2p: subscription closed")
				return
			}
			select {
			case out <- Message{From: msg.GetFrom(), Data: msg.Data}:
			case <-n.ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close tears the host and its context down.
func (n *Node) Close() error {
	n.cancel()
	return n.Host.Close()
}
