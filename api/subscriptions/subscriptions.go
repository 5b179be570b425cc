// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams new heads and committed events over websockets.
package subscriptions

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/pacoca/pacoca/api/utils"
	"github.com/pacoca/pacoca/log"
	"github.com/pacoca/pacoca/logdb"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/runtime"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second
	// time allowed to read the next pong message from the peer
	pongWait = 30 * time.Second
	// must be less than pongWait
	pingPeriod = (pongWait * 7) / 10
)

type msgReader interface {
	Read(ctx context.Context) ([]any, error)
}

type Subscriptions struct {
	rt             *runtime.Runtime
	logDB          logdb.Reader
	backtraceLimit uint32
	upgrader       *websocket.Upgrader
	done           chan struct{}
	closeOnce      sync.Once
	wg             sync.WaitGroup
}

// New creates the subscriptions. logDB may be nil, in which case event
// subscriptions are refused.
func New(rt *runtime.Runtime, logDB logdb.Reader, allowedOrigins []string, backtraceLimit uint32) *Subscriptions {
	return &Subscriptions{
		rt:             rt,
		logDB:          logDB,
		backtraceLimit: backtraceLimit,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, u.Host) || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func (s *Subscriptions) parsePosition(req *http.Request) (*uint32, error) {
	value := req.URL.Query().Get("pos")
	if value == "" {
		return nil, nil
	}
	n, err := utils.ParseUint64("pos", value)
	if err != nil {
		return nil, err
	}
	if n > uint64(^uint32(0)) {
		return nil, utils.BadRequest(errors.New("pos: out of range"))
	}
	pos := uint32(n)
	return &pos, nil
}

func (s *Subscriptions) newBlockReader(req *http.Request) (msgReader, error) {
	pos, err := s.parsePosition(req)
	if err != nil {
		return nil, err
	}
	head, err := s.rt.Block()
	if err != nil {
		return nil, err
	}
	if pos == nil {
		// the current head is sent first
		last := head.Number
		if last > 0 {
			last--
		}
		return newBlockReader(s.rt, last), nil
	}
	if *pos > head.Number {
		return nil, utils.BadRequest(errors.New("pos: out of range"))
	}
	return newBlockReader(s.rt, *pos), nil
}

func (s *Subscriptions) newEventReader(req *http.Request) (msgReader, error) {
	if s.logDB == nil {
		return nil, utils.HTTPError(errors.New("event log disabled"), http.StatusServiceUnavailable)
	}
	pos, err := s.parsePosition(req)
	if err != nil {
		return nil, err
	}
	newest, err := s.logDB.NewestBlock()
	if err != nil {
		return nil, err
	}
	position := newest
	if pos != nil {
		if *pos > newest {
			return nil, utils.BadRequest(errors.New("pos: out of range"))
		}
		if newest-*pos > s.backtraceLimit {
			return nil, utils.Forbidden(errors.New("pos: backtrace limit exceeded"))
		}
		position = *pos
	}

	query := req.URL.Query()
	filter := &EventFilter{}
	if filter.Address, err = parseAddress("addr", query.Get("addr")); err != nil {
		return nil, err
	}
	if filter.Caller, err = parseAddress("caller", query.Get("caller")); err != nil {
		return nil, err
	}
	topics := []**pacoca.Bytes32{&filter.Topic0, &filter.Topic1, &filter.Topic2, &filter.Topic3}
	for i, name := range []string{"t0", "t1", "t2", "t3"} {
		if *topics[i], err = parseTopic(name, query.Get(name)); err != nil {
			return nil, err
		}
	}
	return newEventReader(s.logDB, position, filter), nil
}

func parseAddress(name, value string) (*pacoca.Address, error) {
	if value == "" {
		return nil, nil
	}
	addr, err := utils.ParseAddress(name, value)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func parseTopic(name, value string) (*pacoca.Bytes32, error) {
	if value == "" {
		return nil, nil
	}
	topic, err := pacoca.ParseBytes32(value)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, name))
	}
	return &topic, nil
}

func (s *Subscriptions) handleSubject(w http.ResponseWriter, req *http.Request) error {
	var (
		reader msgReader
		err    error
	)
	subject := mux.Vars(req)["subject"]
	switch subject {
	case "block":
		reader, err = s.newBlockReader(req)
	case "event":
		reader, err = s.newEventReader(req)
	default:
		return utils.NotFound(errors.New("unsupported subject"))
	}
	if err != nil {
		return err
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// the upgrader already responded with the error
	if err != nil {
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	metricActiveSubscriptions().AddWithLabel(1, map[string]string{"subject": subject})
	defer metricActiveSubscriptions().AddWithLabel(-1, map[string]string{"subject": subject})

	// errors after the upgrade go to the peer in the close frame
	var closeMsg []byte
	if err := s.pipe(req.Context(), conn, reader); err != nil {
		logger.Debug("subscription closed", "subject", subject, "err", err)
		closeMsg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	} else {
		closeMsg = websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	}
	_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
	return nil
}

// pipe writes the messages of reader to conn until the peer goes away or the
// subscriptions are closed.
func (s *Subscriptions) pipe(ctx context.Context, conn *websocket.Conn, reader msgReader) error {
	closed := make(chan struct{})
	// the read loop handles control frames and detects the peer going away
	go func() {
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		// taken before reading so that no change is missed in between
		changed := s.rt.Changed()
		msgs, err := reader.Read(ctx)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		}

		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-changed:
		}
	}
}

// Close ends all open subscriptions. Hijacked connections are not closed by
// http.Server.Shutdown.
func (s *Subscriptions) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{subject}").
		Methods(http.MethodGet).
		Name("subscriptions_subject").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubject))
}
