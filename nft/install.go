package nft

import (
	"github.com/MixinNetwork/nfo-collection/chain"
	"github.com/MixinNetwork/nfo-collection/metadata"
	"github.com/MixinNetwork/nfo-collection/runtime"
	"github.com/MixinNetwork/nfo-collection/token"
)

// Install registers p together with the token and metadata programs it
// invokes.
func Install(rt *runtime.Runtime, p *Program) {
	rt.Register(chain.TokenProgramID, runtime.ProcessorFunc(token.Process))
	rt.Register(chain.AssociatedTokenProgramID, runtime.ProcessorFunc(token.ProcessAssociated))
	rt.Register(chain.MetadataProgramID, runtime.ProcessorFunc(metadata.Process))
	rt.Register(p.ID, p)
}
