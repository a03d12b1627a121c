// Package generate orchestrates Turkish content production for chunked
// episodes: lexical retrieval over the chunk index, prompt assembly, and
// sequential completion calls that yield six artifacts per episode
// (outline, script, shorts, visuals, qa, publishing).
package generate
