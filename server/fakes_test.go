package server

import (
	"context"
	"sort"
	"strings"
	"time"

	"soundvault/model"
	"soundvault/repository"
)

// In-memory repository fakes backing the handler tests.

type fakeUserRepo struct {
	users     map[int64]*model.User
	favorites map[int64][]int64 // userID -> trackIDs in insertion order
	tracks    *fakeTrackRepo    // for favorite expansion
	nextID    int64
}

func newFakeUserRepo(tracks *fakeTrackRepo) *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[int64]*model.User),
		favorites: make(map[int64][]int64),
		tracks:    tracks,
		nextID:    1,
	}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (int64, error) {
	user.Email = strings.ToLower(user.Email)
	for _, u := range f.users {
		if u.Email == user.Email {
			return 0, repository.ErrDuplicateUser
		}
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	user.ID = f.nextID
	f.nextID++
	stored := *user
	f.users[user.ID] = &stored
	return user.ID, nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(email)
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetAllUsers(_ context.Context) ([]*model.User, error) {
	ids := make([]int64, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		copied := *f.users[id]
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) UpdateUserRole(_ context.Context, id int64, role string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Role = role
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) AddFavorite(_ context.Context, userID, trackID int64) error {
	for _, id := range f.favorites[userID] {
		if id == trackID {
			return repository.ErrDuplicateFavorite
		}
	}
	f.favorites[userID] = append(f.favorites[userID], trackID)
	return nil
}

func (f *fakeUserRepo) RemoveFavorite(_ context.Context, userID, trackID int64) error {
	ids := f.favorites[userID]
	for i, id := range ids {
		if id == trackID {
			f.favorites[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeUserRepo) IsFavorite(_ context.Context, userID, trackID int64) (bool, error) {
	for _, id := range f.favorites[userID] {
		if id == trackID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) GetFavoriteTracks(ctx context.Context, userID int64) ([]*model.Track, error) {
	return f.tracks.GetTracksByIDs(ctx, f.favorites[userID])
}

type fakeTrackRepo struct {
	tracks map[int64]*model.Track
	nextID int64
}

func newFakeTrackRepo() *fakeTrackRepo {
	return &fakeTrackRepo{tracks: make(map[int64]*model.Track), nextID: 1}
}

func (f *fakeTrackRepo) add(track *model.Track) *model.Track {
	if track.ID == 0 {
		track.ID = f.nextID
	}
	if track.ID >= f.nextID {
		f.nextID = track.ID + 1
	}
	f.tracks[track.ID] = track
	return track
}

func (f *fakeTrackRepo) CreateTrack(_ context.Context, track *model.Track) (int64, error) {
	track.ID = 0
	f.add(track)
	return track.ID, nil
}

func (f *fakeTrackRepo) GetTrackByID(_ context.Context, id int64) (*model.Track, error) {
	t, ok := f.tracks[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTrackRepo) GetTracksByIDs(_ context.Context, ids []int64) ([]*model.Track, error) {
	out := make([]*model.Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := f.tracks[id]; ok {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeTrackRepo) UpdateTrack(_ context.Context, track *model.Track) error {
	existing, ok := f.tracks[track.ID]
	if !ok {
		return repository.ErrNotFound
	}
	track.PlayCount = existing.PlayCount
	track.CreatedAt = existing.CreatedAt
	stored := *track
	f.tracks[track.ID] = &stored
	return nil
}

func (f *fakeTrackRepo) DeleteTrack(_ context.Context, id int64) error {
	if _, ok := f.tracks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.tracks, id)
	return nil
}

func (f *fakeTrackRepo) sorted() []*model.Track {
	out := make([]*model.Track, 0, len(f.tracks))
	for _, t := range f.tracks {
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeTrackRepo) ListTracks(_ context.Context, page, limit int, _ repository.TrackFilter) ([]*model.Track, int64, error) {
	all := f.sorted()
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []*model.Track{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeTrackRepo) ListTracksByUser(_ context.Context, userID int64, skip, limit int, allUsers bool) ([]*model.Track, int64, error) {
	var matched []*model.Track
	for _, t := range f.sorted() {
		if allUsers || t.UserID == userID {
			matched = append(matched, t)
		}
	}
	total := int64(len(matched))
	if skip >= len(matched) {
		return []*model.Track{}, total, nil
	}
	end := skip + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (f *fakeTrackRepo) SearchTracks(_ context.Context, keywords []string, limit int) ([]*model.Track, error) {
	var out []*model.Track
	for _, t := range f.sorted() {
		if trackMatches(t, keywords) {
			out = append(out, t)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func trackMatches(t *model.Track, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		matched := strings.Contains(strings.ToLower(t.Name), kw)
		for _, a := range t.Artists {
			if strings.Contains(strings.ToLower(a.Name), kw) {
				matched = true
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (f *fakeTrackRepo) IncrementPlayCount(ctx context.Context, id int64) (*model.Track, error) {
	t, ok := f.tracks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.PlayCount++
	return f.GetTrackByID(ctx, id)
}

func (f *fakeTrackRepo) TrendingTracks(_ context.Context, limit int) ([]*model.Track, error) {
	out := f.sorted()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PlayCount != out[j].PlayCount {
			return out[i].PlayCount > out[j].PlayCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakePlaylistRepo struct {
	playlists map[int64]*model.Playlist
	members   map[int64][]int64 // playlistID -> trackIDs in position order
	nextID    int64
}

func newFakePlaylistRepo() *fakePlaylistRepo {
	return &fakePlaylistRepo{
		playlists: make(map[int64]*model.Playlist),
		members:   make(map[int64][]int64),
		nextID:    1,
	}
}

func (f *fakePlaylistRepo) CreatePlaylist(_ context.Context, playlist *model.Playlist, trackIDs []int64) (int64, error) {
	playlist.ID = f.nextID
	f.nextID++
	stored := *playlist
	f.playlists[playlist.ID] = &stored

	seen := make(map[int64]struct{})
	for _, id := range trackIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		f.members[playlist.ID] = append(f.members[playlist.ID], id)
	}
	return playlist.ID, nil
}

func (f *fakePlaylistRepo) GetPlaylistByID(_ context.Context, id int64) (*model.Playlist, error) {
	p, ok := f.playlists[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakePlaylistRepo) UpdatePlaylist(_ context.Context, playlist *model.Playlist) error {
	existing, ok := f.playlists[playlist.ID]
	if !ok {
		return repository.ErrNotFound
	}
	playlist.CreatedByID = existing.CreatedByID
	stored := *playlist
	f.playlists[playlist.ID] = &stored
	return nil
}

func (f *fakePlaylistRepo) DeletePlaylist(_ context.Context, id int64) error {
	if _, ok := f.playlists[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.playlists, id)
	delete(f.members, id)
	return nil
}

func (f *fakePlaylistRepo) listSorted() []*model.Playlist {
	ids := make([]int64, 0, len(f.playlists))
	for id := range f.playlists {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*model.Playlist, 0, len(ids))
	for _, id := range ids {
		copied := *f.playlists[id]
		out = append(out, &copied)
	}
	return out
}

func (f *fakePlaylistRepo) ListPlaylists(_ context.Context) ([]*model.Playlist, error) {
	return f.listSorted(), nil
}

func (f *fakePlaylistRepo) ListPlaylistsByUser(_ context.Context, userID int64) ([]*model.Playlist, error) {
	var out []*model.Playlist
	for _, p := range f.listSorted() {
		if p.CreatedByID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlaylistRepo) ListPublicPlaylists(_ context.Context) ([]*model.Playlist, error) {
	var out []*model.Playlist
	for _, p := range f.listSorted() {
		if p.IsPublic {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlaylistRepo) GetPlaylistTrackIDs(_ context.Context, playlistID int64) ([]int64, error) {
	return append([]int64(nil), f.members[playlistID]...), nil
}

func (f *fakePlaylistRepo) AddTrackToPlaylist(_ context.Context, playlistID, trackID int64) error {
	for _, id := range f.members[playlistID] {
		if id == trackID {
			return repository.ErrDuplicateTrack
		}
	}
	f.members[playlistID] = append(f.members[playlistID], trackID)
	return nil
}

func (f *fakePlaylistRepo) ReplaceTracks(_ context.Context, playlistID int64, trackIDs []int64) error {
	f.members[playlistID] = nil
	seen := make(map[int64]struct{})
	for _, id := range trackIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		f.members[playlistID] = append(f.members[playlistID], id)
	}
	return nil
}

func (f *fakePlaylistRepo) SetPrivacy(_ context.Context, id int64, isPublic bool) (*model.Playlist, error) {
	p, ok := f.playlists[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.IsPublic = isPublic
	copied := *p
	return &copied, nil
}

type fakeRecentRepo struct {
	plays  []*model.RecentPlay
	nextID int64
}

func newFakeRecentRepo() *fakeRecentRepo {
	return &fakeRecentRepo{nextID: 1}
}

func (f *fakeRecentRepo) AddPlay(_ context.Context, userID, trackID int64) (*model.RecentPlay, error) {
	play := &model.RecentPlay{
		ID:       f.nextID,
		UserID:   userID,
		TrackID:  trackID,
		PlayedAt: time.Now(),
	}
	f.nextID++
	f.plays = append(f.plays, play)
	return play, nil
}

func (f *fakeRecentRepo) RecentByUser(_ context.Context, userID int64, limit int) ([]*model.RecentPlay, error) {
	var out []*model.RecentPlay
	for i := len(f.plays) - 1; i >= 0 && len(out) < limit; i-- {
		if f.plays[i].UserID == userID {
			copied := *f.plays[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}
