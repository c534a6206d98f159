package emitter

import "fmt"

// counter is the single monotonically increasing name source shared by
// every numbered local the emitter introduces (§9: "a single monotonically
// increasing counter shared by all IR components, walked in emission
// order"), the simplest way to keep golden output byte-identical across
// runs of the same program.
type counter struct {
	n int
}

func (c *counter) reader() string     { c.n++; return fmt.Sprintf("reader__%d", c.n) }
func (c *counter) filename() string   { c.n++; return fmt.Sprintf("filename__%d", c.n) }
func (c *counter) aggregator() string { c.n++; return fmt.Sprintf("aggregator__%d", c.n) }
func (c *counter) transformer() string {
	c.n++
	return fmt.Sprintf("Transformer__%d", c.n)
}
