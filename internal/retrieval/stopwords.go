package retrieval

import "strings"

// germanStopwords are filtered out of search queries built from episode titles.
var germanStopwords = func() map[string]struct{} {
	words := "der die das ein eine einer eines einem einen und oder aber auch als " +
		"am an auf aus bei bis durch fuer gegen im in ist mit nach nicht noch " +
		"nun nur ob so ueber um und von vor waehrend wie wird zu zum zur " +
		"dass den dem des doch er es hat haben ich ihr ihm ihn ihnen ihre ja " +
		"kann man mich mir mehr mein meine meinem meinen meiner muss nicht " +
		"schon sehr sich sie sind so sollte ueber uns unser unsere vom was " +
		"weil wenn wer wir wird wohl zu"
	set := make(map[string]struct{})
	for _, word := range strings.Fields(words) {
		set[word] = struct{}{}
	}
	return set
}()

func isStopword(word string) bool {
	_, ok := germanStopwords[strings.ToLower(word)]
	return ok
}
