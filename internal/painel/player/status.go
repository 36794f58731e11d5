package player

import (
	"strconv"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
)

// Status reports the cycle position and the snapshot on screen
func (p *Player) Status() v1alpha1.PlayerStatus {
	st := v1alpha1.PlayerStatus{
		Paired:   p.device != "",
		DeviceID: p.device.String(),
	}

	snap := p.holder.Current()
	if snap == nil {
		return st
	}

	if p.Running() {
		cs := p.engine.State()
		st.State = string(cs.State)
		st.TablePage = cs.TablePage
		st.VideoIndex = cs.VideoIndex
	}

	accepted := snap.AcceptedAt
	st.Mode = snap.Content.Config.Mode
	st.Orientation = snap.Layout.Orientation
	st.Fingerprint = strconv.FormatUint(snap.Fingerprint, 16)
	st.AcceptedAt = &accepted
	st.Products = len(snap.Content.Products)
	st.Playlist = len(snap.Content.Playlist)
	return st
}
