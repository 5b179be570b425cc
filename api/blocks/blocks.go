// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blocks

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pacoca/pacoca/api/utils"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/runtime"
)

// Block is the head of the chain.
type Block struct {
	Number    uint32 `json:"number"`
	Timestamp uint64 `json:"timestamp"`
	// Pending is the block the next call executes in.
	Pending uint32 `json:"pending"`
	// StageHash digests the changes not yet committed to disk.
	StageHash pacoca.Bytes32 `json:"stageHash"`
}

type Blocks struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Blocks {
	return &Blocks{rt}
}

func (b *Blocks) handleGetBest(w http.ResponseWriter, _ *http.Request) error {
	head, err := b.rt.Block()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Block{
		Number:    head.Number,
		Timestamp: head.Time,
		Pending:   head.Number + 1,
		StageHash: b.rt.StageHash(),
	})
}

func (b *Blocks) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/best").
		Methods(http.MethodGet).
		Name("blocks_get_best").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetBest))
}
