package hidreport

import (
	"bytes"
	"sync"

	"github.com/neuroplastio/neio-hogpad/hidapi/hiddesc"
)

// Codec owns the constant HID report descriptor this module declares and
// caches its encoded byte form, since it is emitted once per run and never
// mutates (spec's ReportDescriptor contract).
type Codec struct {
	once     sync.Once
	desc     hiddesc.ReportDescriptor
	descBuf  []byte
	descErr  error
	maxBytes int
}

func NewCodec() *Codec {
	return &Codec{desc: hiddesc.Combined()}
}

// Descriptor returns the ReportDescriptor value model.
func (c *Codec) Descriptor() hiddesc.ReportDescriptor {
	return c.desc
}

// DescriptorBytes returns the encoded descriptor, computing and caching it
// on first use.
func (c *Codec) DescriptorBytes() ([]byte, error) {
	c.once.Do(func() {
		buf := &bytes.Buffer{}
		enc := hiddesc.NewDescriptorEncoder(buf, &c.desc)
		if err := enc.Encode(); err != nil {
			c.descErr = err
			return
		}
		c.descBuf = buf.Bytes()
		maxBits := 0
		for _, coll := range c.desc.Collections {
			if bits := coll.MaxReportSize(); bits > maxBits {
				maxBits = bits
			}
		}
		// +1 for the leading report ID byte the USB transport prepends to
		// every write; the GATT transport never carries it, since each
		// report ID has its own characteristic.
		c.maxBytes = (maxBits+7)/8 + 1
	})
	if c.descErr != nil {
		return nil, c.descErr
	}
	return c.descBuf, nil
}

// MaxReportSize returns the length in bytes of the largest single report
// including its leading report ID byte (the USB wire form), triggering
// descriptor encoding if it has not run yet.
func (c *Codec) MaxReportSize() (int, error) {
	if _, err := c.DescriptorBytes(); err != nil {
		return 0, err
	}
	return c.maxBytes, nil
}
