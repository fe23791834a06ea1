package cpfile

import (
	"fmt"

	"github.com/nilfs-go/cpfile/internal/types"
)

// GetStat returns the aggregate counters tracked by the cpfile header.
func (f *Cpfile) GetStat() (types.Stat, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	hdr, _, err := f.getHeader()
	if err != nil {
		return types.Stat{}, fmt.Errorf("cpfile: get_stat: %w", err)
	}

	return types.Stat{
		Cno:  f.mdt.Cno(),
		Ncps: hdr.Ncheckpoints,
		Nsss: hdr.Nsnapshots,
	}, nil
}
