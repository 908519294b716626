package comicserver

import (
	"strings"

	"github.com/mmcdole/longbox/internal/domain"
)

// MapBatch converts an updates response to a domain batch
func MapBatch(resp UpdatesResponse) domain.UpdateBatch {
	return domain.UpdateBatch{
		Comics:           MapComics(resp.Comics),
		LastComicID:      resp.LastComicID,
		MostRecentUpdate: resp.MostRecentUpdate,
		MoreUpdates:      resp.MoreUpdates,
		ProcessingCount:  resp.ProcessingCount,
		RescanCount:      resp.RescanCount,
	}
}

// MapComics converts server comics to domain comics
func MapComics(dtos []ComicDTO) []domain.Comic {
	comics := make([]domain.Comic, 0, len(dtos))
	for _, d := range dtos {
		comics = append(comics, mapComic(d))
	}
	return comics
}

func mapComic(d ComicDTO) domain.Comic {
	return domain.Comic{
		ID:             d.ID,
		UpdatedAt:      d.LastModifiedOn,
		State:          mapState(d.ComicState),
		Publisher:      strings.TrimSpace(d.Publisher),
		Series:         strings.TrimSpace(d.Series),
		Volume:         strings.TrimSpace(d.Volume),
		IssueNumber:    strings.TrimSpace(d.IssueNumber),
		Title:          strings.TrimSpace(d.Title),
		Filename:       d.Filename,
		Characters:     d.Characters,
		Teams:          d.Teams,
		Locations:      d.Locations,
		Stories:        d.Stories,
		DuplicateCount: d.DuplicateCount,
	}
}

// mapState normalizes the server state; unknown values count as stable
func mapState(s string) domain.ComicState {
	switch state := domain.ComicState(strings.ToUpper(strings.TrimSpace(s))); state {
	case domain.ComicStateAdded,
		domain.ComicStateUnprocessed,
		domain.ComicStateStable,
		domain.ComicStateChanged,
		domain.ComicStateDeleted:
		return state
	default:
		return domain.ComicStateStable
	}
}
