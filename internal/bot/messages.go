package bot

import (
	"fmt"
	"strconv"
	"strings"

	"akses-bot/internal/midtrans"
)

// formatRupiah renders an amount in the smallest currency unit with thousands
// grouping, e.g. 50000 -> "50,000".
func formatRupiah(amount int) string {
	s := strconv.Itoa(amount)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func startMessage(firstName string, price int) string {
	return fmt.Sprintf("👋 Halo <b>%s</b>!\n\n"+
		"Selamat datang. Untuk mendapatkan akses ke grup eksklusif, silakan lakukan pembayaran sebesar <b>Rp %s</b>.\n\n"+
		"Tekan tombol di bawah untuk memulai.", firstName, formatRupiah(price))
}

func qrisCaption(price int, orderID string) string {
	return fmt.Sprintf("✅ QRIS berhasil dibuat!\n\n"+
		"Silakan pindai gambar ini untuk membayar Rp %s.\n\n"+
		"Link akses akan dikirim otomatis setelah pembayaran berhasil.\n\n"+
		"<b>Order ID:</b> <code>%s</code>", formatRupiah(price), orderID)
}

// vaMessage renders the payment instructions after a successful bank-transfer
// or echannel charge: amount, destination (VA number or Mandiri bill), order id.
func vaMessage(bankName string, price int, resp *midtrans.ChargeResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Virtual Account %s berhasil dibuat!\n\n", bankName)
	fmt.Fprintf(&b, "Silakan lakukan pembayaran sebesar <b>Rp %s</b> sebelum waktu kedaluwarsa.\n\n", formatRupiah(price))

	if resp.PaymentType == "echannel" || resp.BillKey != "" {
		fmt.Fprintf(&b, "<b>Kode Perusahaan:</b> <code>%s</code>\n", resp.BillerCode)
		fmt.Fprintf(&b, "<b>Nomor Pembayaran/Bill Key:</b> <code>%s</code>\n", resp.BillKey)
	} else {
		fmt.Fprintf(&b, "<b>Nomor Virtual Account:</b> <code>%s</code>\n", resp.VirtualAccountNumber())
	}

	fmt.Fprintf(&b, "\n<b>Order ID:</b> <code>%s</code>\n\n", resp.OrderID)
	b.WriteString("Link akses akan dikirim otomatis setelah pembayaran berhasil.")
	return b.String()
}

func broadcastSummary(success, fail int) string {
	return fmt.Sprintf("📢 <b>Broadcast Selesai!</b>\n\n"+
		"✅ Berhasil terkirim: <b>%d</b> pengguna\n"+
		"❌ Gagal terkirim: <b>%d</b> pengguna (kemungkinan bot diblokir)", success, fail)
}
