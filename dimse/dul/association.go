package dul

import (
	"context"
	"fmt"
	"sync"

	"github.com/codeninja55/go-dimse/dimse/pdata"
	"github.com/codeninja55/go-dimse/dimse/pdu"
)

// Association represents a DICOM association
type Association struct {
	conn                 *Connection
	config               Config
	presentationContexts map[uint8]*PresentationContext
	mu                   sync.RWMutex
}

// PresentationContext represents a negotiated presentation context
type PresentationContext struct {
	ID             uint8
	AbstractSyntax string
	TransferSyntax string
	Result         uint8
	Accepted       bool
}

// PresentationContextRQ represents a requested presentation context
type PresentationContextRQ struct {
	ID               uint8
	AbstractSyntax   string
	TransferSyntaxes []string
}

// NewAssociation creates a new association over the connection. The
// configuration is validated before use.
func NewAssociation(conn *Connection, config Config) (*Association, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Association{
		conn:                 conn,
		config:               config.withDefaults(),
		presentationContexts: make(map[uint8]*PresentationContext),
	}, nil
}

// RequestAssociation sends an A-ASSOCIATE-RQ and waits for response
func (a *Association) RequestAssociation(ctx context.Context, pcReqs []PresentationContextRQ) error {
	action, err := a.conn.sm.ProcessEvent(AE3)
	if err != nil {
		return fmt.Errorf("state machine error: %w", err)
	}
	if action != ActionSendAssociateRQ {
		return fmt.Errorf("unexpected action: %v", action)
	}

	rq := &pdu.AssociateRQ{
		ProtocolVersion:    0x0001,
		CalledAETitle:      pdu.PadAETitle(a.config.CalledAETitle),
		CallingAETitle:     pdu.PadAETitle(a.config.CallingAETitle),
		ApplicationContext: a.config.ApplicationContext,
		UserInfo: pdu.UserInformation{
			MaxPDULength:           a.config.MaxPDULength,
			ImplementationClassUID: a.config.ImplementationClassUID,
			ImplementationVersion:  a.config.ImplementationVersion,
		},
	}

	// keep the requested abstract syntaxes so the response contexts can be
	// matched back to them
	pcMap := make(map[uint8]string)
	for _, pcReq := range pcReqs {
		rq.PresentationContexts = append(rq.PresentationContexts, pdu.PresentationContextRQ{
			ID:               pcReq.ID,
			AbstractSyntax:   pcReq.AbstractSyntax,
			TransferSyntaxes: pcReq.TransferSyntaxes,
		})
		pcMap[pcReq.ID] = pcReq.AbstractSyntax
	}

	if err := a.conn.SendPDU(ctx, rq); err != nil {
		return fmt.Errorf("send A-ASSOCIATE-RQ: %w", err)
	}

	response, err := a.conn.ReadPDU(ctx)
	if err != nil {
		return fmt.Errorf("read association response: %w", err)
	}

	switch p := response.(type) {
	case *pdu.AssociateAC:
		if _, err := a.conn.sm.ProcessEvent(AE6); err != nil {
			return fmt.Errorf("state machine error: %w", err)
		}

		a.mu.Lock()
		for _, pc := range p.PresentationContexts {
			a.presentationContexts[pc.ID] = &PresentationContext{
				ID:             pc.ID,
				AbstractSyntax: pcMap[pc.ID],
				TransferSyntax: pc.TransferSyntax,
				Result:         pc.Result,
				Accepted:       pc.Result == pdu.PresentationContextAcceptance,
			}
		}
		a.mu.Unlock()

		// the peer's offered maximum governs what we send
		if p.UserInfo.MaxPDULength > 0 {
			a.conn.SetMaxPDULength(p.UserInfo.MaxPDULength)
		}

		return nil

	case *pdu.AssociateRJ:
		_, _ = a.conn.sm.ProcessEvent(AE7)
		return fmt.Errorf("association rejected: result=%d source=%d reason=%d",
			p.Result, p.Source, p.Reason)

	default:
		return fmt.Errorf("unexpected PDU type: %T", response)
	}
}

// AcceptAssociation processes an A-ASSOCIATE-RQ and sends response
func (a *Association) AcceptAssociation(ctx context.Context, rq *pdu.AssociateRQ, supportedContexts map[string][]string) error {
	if _, err := a.conn.sm.ProcessEvent(AE8); err != nil {
		return fmt.Errorf("state machine error: %w", err)
	}

	a.mu.Lock()
	a.config.CalledAETitle = pdu.TrimAETitle(rq.CalledAETitle)
	a.config.CallingAETitle = pdu.TrimAETitle(rq.CallingAETitle)
	a.config.ApplicationContext = rq.ApplicationContext
	a.mu.Unlock()

	var acContexts []pdu.PresentationContextAC
	for _, pcRQ := range rq.PresentationContexts {
		pc := a.negotiatePresentationContext(pcRQ, supportedContexts)
		acContexts = append(acContexts, pdu.PresentationContextAC{
			ID:             pc.ID,
			Result:         pc.Result,
			TransferSyntax: pc.TransferSyntax,
		})

		if pc.Result == pdu.PresentationContextAcceptance {
			a.mu.Lock()
			a.presentationContexts[pc.ID] = pc
			a.mu.Unlock()
		}
	}

	ac := &pdu.AssociateAC{
		ProtocolVersion:      0x0001,
		CalledAETitle:        rq.CalledAETitle,
		CallingAETitle:       rq.CallingAETitle,
		ApplicationContext:   rq.ApplicationContext,
		PresentationContexts: acContexts,
		UserInfo: pdu.UserInformation{
			MaxPDULength:           a.config.MaxPDULength,
			ImplementationClassUID: a.config.ImplementationClassUID,
			ImplementationVersion:  a.config.ImplementationVersion,
		},
	}

	action, err := a.conn.sm.ProcessEvent(AE4)
	if err != nil {
		return fmt.Errorf("state machine error: %w", err)
	}
	if action != ActionSendAssociateAC {
		return fmt.Errorf("unexpected action: %v", action)
	}

	if err := a.conn.SendPDU(ctx, ac); err != nil {
		return fmt.Errorf("send A-ASSOCIATE-AC: %w", err)
	}

	// respect the requestor's offered maximum for outgoing data
	if rq.UserInfo.MaxPDULength > 0 {
		a.conn.SetMaxPDULength(rq.UserInfo.MaxPDULength)
	}

	return nil
}

// SendPData opens a P-Data writer for streaming one message on the given
// presentation context. The association must be established. The message
// is terminated by the writer's Finish.
func (a *Association) SendPData(presentationContextID uint8) (*pdata.Writer, error) {
	action, err := a.conn.sm.ProcessEvent(AE9)
	if err != nil {
		return nil, fmt.Errorf("state machine error: %w", err)
	}
	if action != ActionSendData {
		return nil, fmt.Errorf("unexpected action: %v", action)
	}

	return a.conn.SendPData(presentationContextID)
}

// ReceivePData opens a P-Data reader that reassembles the next incoming
// message. The association must be established.
func (a *Association) ReceivePData(opts ...pdata.ReaderOption) (*pdata.Reader, error) {
	if _, err := a.conn.sm.ProcessEvent(AE10); err != nil {
		return nil, fmt.Errorf("state machine error: %w", err)
	}

	return a.conn.ReceivePData(opts...), nil
}

// Release performs graceful association release
func (a *Association) Release(ctx context.Context) error {
	action, err := a.conn.sm.ProcessEvent(AE11)
	if err != nil {
		return fmt.Errorf("state machine error: %w", err)
	}
	if action != ActionSendReleaseRQ {
		return fmt.Errorf("unexpected action: %v", action)
	}

	if err := a.conn.SendPDU(ctx, &pdu.ReleaseRQ{}); err != nil {
		return fmt.Errorf("send A-RELEASE-RQ: %w", err)
	}

	response, err := a.conn.ReadPDU(ctx)
	if err != nil {
		return fmt.Errorf("read release response: %w", err)
	}

	if _, ok := response.(*pdu.ReleaseRP); !ok {
		return fmt.Errorf("expected A-RELEASE-RP, got %T", response)
	}

	if _, err := a.conn.sm.ProcessEvent(AE13); err != nil {
		return fmt.Errorf("state machine error: %w", err)
	}

	return a.conn.Close()
}

// Abort sends an A-ABORT and closes the connection
func (a *Association) Abort(ctx context.Context, source, reason uint8) error {
	if _, err := a.conn.sm.ProcessEvent(AE15); err != nil {
		return fmt.Errorf("state machine error: %w", err)
	}

	abort := &pdu.Abort{
		Source: source,
		Reason: reason,
	}
	if err := a.conn.SendPDU(ctx, abort); err != nil {
		return fmt.Errorf("send A-ABORT: %w", err)
	}

	return a.conn.Close()
}

// SendData sends a pre-built P-DATA-TF PDU. Most callers should prefer
// SendPData, which handles fragmentation against the negotiated maximum
// PDU length.
func (a *Association) SendData(ctx context.Context, data *pdu.DataTF) error {
	action, err := a.conn.sm.ProcessEvent(AE9)
	if err != nil {
		return fmt.Errorf("state machine error: %w", err)
	}
	if action != ActionSendData {
		return fmt.Errorf("unexpected action: %v", action)
	}

	return a.conn.SendPDU(ctx, data)
}

// GetPresentationContext returns the presentation context for the given ID
func (a *Association) GetPresentationContext(id uint8) (*PresentationContext, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pc, ok := a.presentationContexts[id]
	return pc, ok
}

// FindPresentationContext finds an accepted presentation context by abstract syntax
func (a *Association) FindPresentationContext(abstractSyntax string) (*PresentationContext, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, pc := range a.presentationContexts {
		if pc.AbstractSyntax == abstractSyntax && pc.Accepted {
			return pc, true
		}
	}
	return nil, false
}

// negotiatePresentationContext negotiates a single presentation context
func (a *Association) negotiatePresentationContext(rq pdu.PresentationContextRQ, supported map[string][]string) *PresentationContext {
	pc := &PresentationContext{
		ID:             rq.ID,
		AbstractSyntax: rq.AbstractSyntax,
	}

	supportedTS, abstractOK := supported[rq.AbstractSyntax]
	if !abstractOK {
		pc.Result = pdu.PresentationContextAbstractSyntaxNotSupported
		return pc
	}

	for _, requestedTS := range rq.TransferSyntaxes {
		for _, supportTS := range supportedTS {
			if requestedTS == supportTS {
				pc.TransferSyntax = requestedTS
				pc.Result = pdu.PresentationContextAcceptance
				pc.Accepted = true
				return pc
			}
		}
	}

	pc.Result = pdu.PresentationContextTransferSyntaxesNotSupported
	return pc
}

// Connection returns the underlying connection
func (a *Association) Connection() *Connection {
	return a.conn
}

// CalledAETitle returns the called AE title
func (a *Association) CalledAETitle() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.CalledAETitle
}

// CallingAETitle returns the calling AE title
func (a *Association) CallingAETitle() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.CallingAETitle
}
