// Package fulltext implements the full-text module: inverted indexes over
// text keys with BM25 ranking, a match operator, and highlight and
// snippet functions.
//
// Match expressions combine terms with AND, OR and NOT, group with
// parentheses, quote phrases and end a word with * for a prefix:
//
//	sqlite AND "full text" NOT fts3*
package fulltext

import "github.com/cyw0ng95/flint/ext"

type Module struct{}

func (Module) Name() string        { return "fulltext" }
func (Module) Description() string { return "full-text indexes, BM25 ranking and match functions" }

func (Module) Register(r *ext.Registries) error {
	for _, op := range operators() {
		if err := r.Operators.Register(op); err != nil {
			return err
		}
	}
	for _, fn := range functions() {
		if err := r.Functions.Register(fn); err != nil {
			return err
		}
	}
	if err := r.Indexes.Register(Structure, ext.IndexBuilderFunc(buildFTS)); err != nil {
		return err
	}
	return r.Indexes.Register(PorterStructure, ext.IndexBuilderFunc(buildPorter))
}
