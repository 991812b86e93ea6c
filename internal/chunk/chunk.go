package chunk

// Chunk is a unit of columnar data moved between pipeline stages. The
// exchange layer treats the column payload as opaque; it only reads the
// row count and the byte sizes used for memory accounting.
type Chunk struct {
	columns [][]byte
	rows    int
}

// New creates a chunk from raw column buffers. All columns are assumed
// to hold the same number of rows.
func New(columns [][]byte, rows int) *Chunk {
	return &Chunk{columns: columns, rows: rows}
}

// Rows returns the number of rows in the chunk.
func (c *Chunk) Rows() int {
	return c.rows
}

// Columns returns the raw column buffers.
func (c *Chunk) Columns() [][]byte {
	return c.columns
}

// ByteSize returns the uncompressed payload size in bytes.
func (c *Chunk) ByteSize() int64 {
	var total int64
	for _, col := range c.columns {
		total += int64(len(col))
	}
	return total
}

// AllocatedBytes returns the bytes actually reserved for the chunk,
// including unused buffer capacity. This is the figure charged against
// memory budgets when the chunk crosses an exchange boundary.
func (c *Chunk) AllocatedBytes() int64 {
	var total int64
	for _, col := range c.columns {
		total += int64(cap(col))
	}
	return total
}
