package media

var musicKeywords = []string{
	"music", "song", "track", "album", "lyrics", "melody", "beat", "rhythm", "instrumental",
	"audio", "cover", "remix", "dj", "karaoke", "official", "studio",
	"single", "duet", "performance", "concert", "setlist", "mixtape", "ep", "lp", "record",
	"pop", "rock", "hip hop", "rap", "jazz", "classical", "blues", "reggae", "soul", "r&b",
	"country", "indie", "edm", "metal", "folk", "punk", "dubstep", "trap", "house music",
	"electronic", "acoustic", "remastered", "unplugged", "live performance", "festival",
	"orchestra", "symphony", "session", "guitar", "piano", "drums", "bass", "synth", "violin",
	"cello", "trumpet", "saxophone", "flute", "background music", "relaxing", "chill", "party",
	"workout music", "study music", "sleep music", "motivational music", "gaming music",
	"dance music", "tiktok music", "viral", "playlist", "trending", "mashup", "bootleg",
	"fan edit", "sped up", "slowed", "reverb", "canción", "música", "chanson", "musik",
	"歌曲", "音楽", "spotify", "apple music", "soundcloud", "pandora", "deezer", "bandcamp",
}
