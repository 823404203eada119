package utils

import "strconv"

// BuildTodosGenerationKey names the counter every todo write for userID
// bumps.
func BuildTodosGenerationKey(userID int64) string {
	return "todos:gen:v1:user=" + strconv.FormatInt(userID, 10)
}

// BuildTodosListCacheKey names the cached first page of a user's todos as
// of generation gen. Only the default first page is cached.
func BuildTodosListCacheKey(userID, gen int64) string {
	return "todos:list:v2:user=" + strconv.FormatInt(userID, 10) + ":gen=" + strconv.FormatInt(gen, 10)
}
