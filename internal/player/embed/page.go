package embed

// playerPage is the page the browser loads. It hosts the IFrame player
// and relays commands and events over the websocket.
const playerPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>melo player</title>
<style>body{margin:0;background:#111}#player{width:100vw;height:100vh}</style>
</head>
<body>
<div id="player"></div>
<script src="https://www.youtube.com/iframe_api"></script>
<script>
var ws, player, ready = false;

function connect() {
  ws = new WebSocket("ws://" + location.host + "/ws");
  ws.onmessage = function (msg) {
    var c = JSON.parse(msg.data);
    if (!player) return;
    switch (c.cmd) {
      case "load": player.loadVideoById(c.videoId); break;
      case "play": player.playVideo(); break;
      case "pause": player.pauseVideo(); break;
      case "seek": player.seekTo(c.seconds, true); break;
      case "volume": player.setVolume(c.value); break;
      case "mute": c.on ? player.mute() : player.unMute(); break;
    }
  };
  ws.onclose = function () { setTimeout(connect, 1000); };
}

function send(ev) {
  if (ws && ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(ev));
}

function onYouTubeIframeAPIReady() {
  player = new YT.Player("player", {
    playerVars: { controls: 0, disablekb: 1 },
    events: {
      onReady: function () { ready = true; },
      onStateChange: function (e) {
        if (e.data === YT.PlayerState.PLAYING) {
          send({ event: "ready", duration: player.getDuration() });
          send({ event: "state", playing: true });
        } else if (e.data === YT.PlayerState.PAUSED) {
          send({ event: "state", playing: false });
        } else if (e.data === YT.PlayerState.ENDED) {
          send({ event: "ended" });
        }
      },
      onError: function (e) { send({ event: "error", code: e.data }); }
    }
  });
  setInterval(function () {
    if (ready && player.getPlayerState && player.getPlayerState() === YT.PlayerState.PLAYING) {
      send({ event: "time", position: player.getCurrentTime() });
    }
  }, 500);
}

connect();
</script>
</body>
</html>
`
