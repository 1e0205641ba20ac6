package pdcp

import "avaneesh/pdcp-lte-go/pkg/types"

// RLC is the lower layer consumed by a PDCP entity.
// Calls are non-blocking hand-offs of owned buffers.
type RLC interface {
	// WriteSDU queues a PDCP PDU for transmission on the given bearer
	WriteSDU(lcid uint16, sdu *types.Buffer)

	// DiscardSDU asks RLC to drop a queued SDU whose discard timer
	// expired. RLC ignores the request if a segment is already on air.
	DiscardSDU(lcid uint16, sn uint32)

	// RBIsUM reports whether the bearer is mapped to RLC UM
	RBIsUM(lcid uint16) bool

	// SDUQueueIsFull reports whether the RLC SDU queue for the bearer
	// is full
	SDUQueueIsFull(lcid uint16) bool
}

// RRC consumes decoded signalling SDUs and names bearers for log output
type RRC interface {
	// WritePDU delivers a decoded SRB SDU to RRC
	WritePDU(lcid uint16, pdu *types.Buffer)

	// RBName returns a human readable bearer name for the given LCID
	RBName(lcid uint16) string
}

// Gateway consumes decoded data-plane SDUs
type Gateway interface {
	// WritePDU delivers a decoded DRB SDU to the IP gateway
	WritePDU(lcid uint16, pdu *types.Buffer)
}
