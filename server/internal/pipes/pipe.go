// Package pipes chains the media stream of a live capture through
// companion processes before it reaches disk.
package pipes

import "io"

type Pipe interface {
	Name() string
	Connect(r io.Reader) (io.Reader, error)
}
