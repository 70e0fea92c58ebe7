package gramsearch

import (
	"fmt"
	"time"

	"github.com/hupe1980/gramsearch/channel"
	"github.com/hupe1980/gramsearch/shard"
)

// Link returns "<channelID>/<yyyy>/<mm>/#ts-<sec>.<micro>", the path of the
// message inside the archive. The month page is chosen in loc; nil means
// time.Local.
func Link(ch channel.Entry, doc shard.DocID, loc *time.Location) string {
	t := messageTime(doc, loc)
	return fmt.Sprintf("%s/%04d/%02d/#ts-%s", ch.ID, t.Year(), int(t.Month()), doc.Timestamp())
}

// Label returns "#<channelName>: yyyy-mm-dd hh:mm:ss" in loc.
func Label(ch channel.Entry, doc shard.DocID, loc *time.Location) string {
	return fmt.Sprintf("#%s: %s", ch.Name, messageTime(doc, loc).Format(time.DateTime))
}

func messageTime(doc shard.DocID, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(int64(doc.Sec), 0).In(loc)
}
