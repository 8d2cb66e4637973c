package repositorytest

import "melodex/repository"

// Compile-time checks that Store satisfies every repository interface.
var (
	_ repository.UserRepository     = (*Store)(nil)
	_ repository.MusicRepository    = (*Store)(nil)
	_ repository.PlaylistRepository = (*Store)(nil)
)
