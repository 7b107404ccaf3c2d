package apt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-apt/internal/pool"
	"github.com/arloliu/go-apt/logger"
	"github.com/arloliu/go-apt/message"
	"github.com/arloliu/go-apt/transport"
	"github.com/arloliu/go-apt/units"
)

// Address identifies the endpoint and stage channel an exchange targets.
type Address struct {
	// Destination is the bus address of the controller, e.g. 0x50 for a generic USB unit
	// or 0x21..0x2A for a bay of a rack system.
	Destination byte
	// Source is the bus address of this host, usually 0x01.
	Source byte
	// Channel is the stage channel within the destination, starting at 1.
	Channel byte
}

func (a Address) String() string {
	return fmt.Sprintf("dst=0x%02X src=0x%02X chan=%d", a.Destination, a.Source, a.Channel)
}

// Validate reports whether the address can be encoded into a frame header.
func (a Address) Validate() error {
	if a.Destination&message.LongFormFlag != 0 {
		return fmt.Errorf("%w: destination 0x%02X overlaps the long-form flag", ErrInvalidArgument, a.Destination)
	}

	return nil
}

// Controller issues protocol verbs to one stage channel over a shared session.
// It holds no mutable state and is safe for concurrent use.
type Controller struct {
	sess *transport.Session
	addr Address
	sf   units.ScaleFactors

	settleDelay time.Duration
	homeTimeout time.Duration
	moveTimeout time.Duration

	logger logger.Logger
}

// NewController creates a controller for addr on sess, converting units with sf.
func NewController(sess *transport.Session, addr Address, sf units.ScaleFactors, opts ...Option) (*Controller, error) {
	if sess == nil {
		return nil, fmt.Errorf("%w: session is nil", ErrInvalidArgument)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	if sf.Unit <= 0 || sf.Velocity <= 0 || sf.Acceleration <= 0 {
		return nil, fmt.Errorf("%w: scale factors %s", ErrInvalidArgument, sf)
	}

	c := &Controller{
		sess:        sess,
		addr:        addr,
		sf:          sf,
		settleDelay: DefaultSettleDelay,
		homeTimeout: DefaultHomeTimeout,
		moveTimeout: DefaultMoveTimeout,
		logger:      logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(c); err != nil {
			return nil, err
		}
	}

	c.logger = c.logger.With("dst", fmt.Sprintf("0x%02X", addr.Destination), "chan", addr.Channel)

	return c, nil
}

// ForChannel returns a controller for another channel of the same destination,
// sharing the session, scale factors and timings.
func (c *Controller) ForChannel(ch byte) *Controller {
	cp := *c
	cp.addr.Channel = ch
	cp.logger = c.logger.With("chan", ch)

	return &cp
}

// Address returns the controller's address.
func (c *Controller) Address() Address { return c.addr }

// ScaleFactors returns the unit conversion set in use.
func (c *Controller) ScaleFactors() units.ScaleFactors { return c.sf }

// Session returns the underlying session.
func (c *Controller) Session() *transport.Session { return c.sess }

// DrainPending discards stale input and resynchronises the session.
func (c *Controller) DrainPending(ctx context.Context) error {
	_, err := c.sess.DrainPending(ctx)
	return err
}

func (c *Controller) short(id uint16, p1, p2 byte) []byte {
	return message.EncodeShort(id, p1, p2, c.addr.Destination, c.addr.Source)
}

func (c *Controller) long(id uint16, values message.Values) ([]byte, error) {
	return message.EncodeLong(id, c.addr.Destination, c.addr.Source, values)
}

// query writes req and decodes the fixed-size reply of type replyID.
func (c *Controller) query(ctx context.Context, req []byte, replyID uint16, drain bool) (*message.Message, error) {
	layout, ok := message.Lookup(replyID)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%04X", message.ErrUnknownMessage, replyID)
	}

	reply, err := c.sess.Do(ctx, transport.Exchange{
		Request:   req,
		Drain:     drain,
		ReplySize: layout.FrameSize(),
	})
	if err != nil {
		return nil, err
	}

	msg, err := message.Decode(reply, replyID)
	if err != nil {
		c.sess.MarkDesynced("malformed " + layout.Name)
		return nil, err
	}

	return msg, nil
}

// send writes a request that has no reply, then waits the settle delay if asked.
func (c *Controller) send(ctx context.Context, req []byte, settle bool) error {
	if _, err := c.sess.Do(ctx, transport.Exchange{Request: req}); err != nil {
		return err
	}

	if settle {
		return pool.Sleep(ctx, c.settleDelay)
	}

	return nil
}

// set encodes a long-form set verb and sends it.
func (c *Controller) set(ctx context.Context, id uint16, values message.Values, settle bool) error {
	req, err := c.long(id, values)
	if err != nil {
		return err
	}

	return c.send(ctx, req, settle)
}

// await writes a motion command and waits for its completion message within timeout.
func (c *Controller) await(ctx context.Context, req []byte, completion uint16, timeout time.Duration) error {
	start := time.Now()
	err := c.sess.Guard(ctx, timeout, func(ctx context.Context) error {
		_, err := c.sess.Do(ctx, transport.Exchange{
			Request:    req,
			Drain:      true,
			Completion: completion,
		})

		return err
	})
	if err != nil {
		if errors.Is(err, transport.ErrTimeout) {
			c.logger.Warn("apt: motion did not complete", "await", message.Name(completion), "timeout", timeout)
		}

		return err
	}

	c.logger.Debug("apt: motion completed", "await", message.Name(completion), "elapsed", time.Since(start))

	return nil
}
