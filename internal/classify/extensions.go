package classify

// Extension allow-lists per media family. Matching is case-insensitive;
// extensions include the leading dot as filepath.Ext returns them.

var videoExtensions = map[string]struct{}{
	".mkv":  {},
	".avi":  {},
	".mov":  {},
	".wmv":  {},
	".mpg":  {},
	".mpeg": {},
	".m2ts": {},
	".flv":  {},
	".vob":  {},
}

// Ambiguous containers can hold either audio or video; only a probe-confirmed
// video stream promotes them to the video tier.
var ambiguousContainerExtensions = map[string]struct{}{
	".mp4":  {},
	".m4v":  {},
	".webm": {},
	".ts":   {},
}

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".ogg":  {},
	".oga":  {},
	".m4a":  {},
	".aac":  {},
	".wav":  {},
	".wma":  {},
	".opus": {},
	".aiff": {},
	".ape":  {},
}

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
	".heic": {},
	".svg":  {},
}
