package service

import "bytes"

// maxProxyOutput caps how much curl output is kept in memory.
const maxProxyOutput = 16 << 20

// limitedBuffer is an io.Writer that silently drops bytes past maxProxyOutput.
type limitedBuffer struct {
	bytes.Buffer
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if room := maxProxyOutput - b.Len(); room < len(p) {
		if room > 0 {
			b.Buffer.Write(p[:room])
		}
		return n, nil
	}
	b.Buffer.Write(p)
	return n, nil
}
